package storage

import (
	"context"
	"encoding/json"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

// Sentinel errors shared by environments.
var (
	// ErrQuotaExceeded indicates a write was rejected for lack of storage quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrUnsupported indicates the environment cannot perform the operation.
	ErrUnsupported = errors.New("operation not supported")

	// ErrNotFound indicates a missing database, store or cache.
	ErrNotFound = errors.New("not found")

	// ErrConstraint indicates a key or unique index collision.
	ErrConstraint = errors.New("constraint violated")

	// ErrData indicates a record that cannot be placed, e.g. no key and no
	// key generator.
	ErrData = errors.New("invalid record")

	// ErrBlocked indicates another connection held a database open and
	// the request could not proceed.
	ErrBlocked = errors.New("blocked by an open connection")
)

// Origin identifies the page whose storage an environment exposes.
type Origin struct {
	Host      string
	Path      string
	UserAgent string
}

// Environment is the storage of one origin.
type Environment interface {
	Origin(ctx context.Context) (Origin, error)
	LocalStorage() KeyValue
	SessionStorage() KeyValue
	Cookies() CookieJar
	IndexedDB() IndexedDB
	Caches() CacheStorage
	ServiceWorkers() ServiceWorkers
}

// KeyValue is a string to string store (localStorage, sessionStorage).
type KeyValue interface {
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) (string, bool, error)
	// Set may fail with ErrQuotaExceeded.
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CookieJar mirrors the document.cookie surface.
type CookieJar interface {
	// CookieString returns the "a=1; b=2" serialisation of visible cookies.
	CookieString(ctx context.Context) (string, error)
	// SetCookie applies one "name=value; attr=..." assignment.
	SetCookie(ctx context.Context, line string) error
}

// DatabaseInfo is one entry of a database enumeration.
type DatabaseInfo struct {
	Name    string
	Version int
}

// StoreSchema describes an object store to create.
type StoreSchema struct {
	Name          string
	KeyPath       snapshot.KeyPath
	AutoIncrement bool
	Indexes       []snapshot.Index
}

// IndexedDB is the structured database factory of an origin.
type IndexedDB interface {
	// Databases enumerates databases or fails with ErrUnsupported.
	Databases(ctx context.Context) ([]DatabaseInfo, error)
	Open(ctx context.Context, name string) (Database, error)
	// Delete fails with ErrBlocked when another connection holds the
	// database open.
	Delete(ctx context.Context, name string) error
	// Create makes a database at version with every store and index in a
	// single upgrade.
	Create(ctx context.Context, name string, version int, stores []StoreSchema) (Database, error)
}

// ScanFunc receives one record; a non-nil error stops the scan.
type ScanFunc func(key, value json.RawMessage) error

// Database is an open structured database.
type Database interface {
	Name() string
	Version() int
	Stores(ctx context.Context) ([]StoreSchema, error)
	// Scan walks a store in key order.
	Scan(ctx context.Context, store string, fn ScanFunc) error
	// Write adds records in one read-write transaction. The first result
	// is aligned with records and holds per-record failures; the second is
	// a transaction-level failure.
	Write(ctx context.Context, store string, records []snapshot.Record) ([]error, error)
	Close() error
}

// Request identifies a cached response.
type Request struct {
	URL    string
	Method string
}

// Response is a cached response with a raw body.
type Response struct {
	Request    Request
	Status     int
	StatusText string
	Headers    map[string]string
	Body       []byte
}

// CacheStorage is the named response cache surface.
type CacheStorage interface {
	Names(ctx context.Context) ([]string, error)
	Entries(ctx context.Context, name string) ([]Response, error)
	Delete(ctx context.Context, name string) error
	Create(ctx context.Context, name string) error
	Put(ctx context.Context, name string, resp Response) error
}

// ServiceWorkers lists service-worker registrations.
type ServiceWorkers interface {
	Registrations(ctx context.Context) ([]snapshot.ServiceWorker, error)
}
