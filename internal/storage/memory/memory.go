// Package memory provides an in-process storage environment.
//
// It is the reference implementation of the storage interfaces: tests run
// the adapters against it, and the SQLite profile environment loads its
// rows into one. IndexedDB follows browser key semantics for JSON values
// (number < string < array ordering, in-line key paths, key generators,
// add-only writes and unique indexes). Key/value stores can be given a byte
// quota and individual keys can be made to fail.
//
// All state sits behind a single mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Option configures an Environment.
type Option func(*Environment)

// WithQuota limits each key/value store to n bytes of keys plus values.
func WithQuota(n int) Option {
	return func(e *Environment) {
		e.local.quota = n
		e.session.quota = n
	}
}

// WithoutDatabaseEnumeration makes IndexedDB.Databases fail with
// storage.ErrUnsupported, like runtimes lacking indexedDB.databases().
func WithoutDatabaseEnumeration() Option {
	return func(e *Environment) {
		e.idb.noEnumerate = true
	}
}

// Without removes whole backends; their accessors return nil.
func Without(backends ...snapshot.Backend) Option {
	return func(e *Environment) {
		for _, b := range backends {
			e.absent[b] = true
		}
	}
}

// WithClock sets the time source used for cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Environment) {
		e.now = now
	}
}

// Environment is an in-memory origin.
type Environment struct {
	mu     sync.Mutex
	origin storage.Origin
	now    func() time.Time
	absent map[snapshot.Backend]bool

	local   *KeyValue
	session *KeyValue
	jar     *CookieJar
	idb     *Factory
	caches  *Caches
	workers *Workers
}

var _ storage.Environment = (*Environment)(nil)

// New creates an empty environment for origin.
func New(origin storage.Origin, opts ...Option) *Environment {
	e := &Environment{
		origin: origin,
		now:    time.Now,
		absent: map[snapshot.Backend]bool{},
	}
	e.local = &KeyValue{mu: &e.mu}
	e.session = &KeyValue{mu: &e.mu}
	e.jar = &CookieJar{env: e}
	e.idb = &Factory{mu: &e.mu, dbs: map[string]*database{}}
	e.caches = &Caches{mu: &e.mu, byName: map[string][]storage.Response{}}
	e.workers = &Workers{mu: &e.mu}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Origin returns the fixed origin.
func (e *Environment) Origin(context.Context) (storage.Origin, error) {
	return e.origin, nil
}

// The accessors below return nil interfaces for absent backends.

func (e *Environment) LocalStorage() storage.KeyValue {
	if e.absent[snapshot.LocalStorage] {
		return nil
	}
	return e.local
}

func (e *Environment) SessionStorage() storage.KeyValue {
	if e.absent[snapshot.SessionStorage] {
		return nil
	}
	return e.session
}

func (e *Environment) Cookies() storage.CookieJar {
	if e.absent[snapshot.Cookies] {
		return nil
	}
	return e.jar
}

func (e *Environment) IndexedDB() storage.IndexedDB {
	if e.absent[snapshot.IndexedDB] {
		return nil
	}
	return e.idb
}

func (e *Environment) Caches() storage.CacheStorage {
	if e.absent[snapshot.CacheStorage] {
		return nil
	}
	return e.caches
}

func (e *Environment) ServiceWorkers() storage.ServiceWorkers {
	if e.absent[snapshot.ServiceWorkers] {
		return nil
	}
	return e.workers
}

// Local returns the concrete localStorage, e.g. for fault injection.
func (e *Environment) Local() *KeyValue { return e.local }

// Session returns the concrete sessionStorage.
func (e *Environment) Session() *KeyValue { return e.session }

// Jar returns the concrete cookie jar.
func (e *Environment) Jar() *CookieJar { return e.jar }

// Databases returns the concrete IndexedDB factory.
func (e *Environment) Databases() *Factory { return e.idb }

// CacheStore returns the concrete cache storage.
func (e *Environment) CacheStore() *Caches { return e.caches }

// Workers returns the concrete service-worker registry.
func (e *Environment) Workers() *Workers { return e.workers }
