package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/paths"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
	"github.com/thoreinstein/webstash/internal/storage/memory"
)

// busyTimeout is PRAGMA busy_timeout in milliseconds.
const busyTimeout = 10_000

const maxRetries = 3

// Profile is a SQLite-backed origin. Its storage methods come from the
// embedded memory environment; Save persists them.
type Profile struct {
	*memory.Environment

	db   *sql.DB
	path string
}

var _ storage.Environment = (*Profile)(nil)

// Option configures Open.
type Option func(*options)

type options struct {
	fallbackHost string
}

// WithFallbackHost sets the host used when neither the caller nor the
// stored profile provide one.
func WithFallbackHost(host string) Option {
	return func(o *options) {
		o.fallbackHost = host
	}
}

// Open opens or creates the profile at path. A non-empty host replaces the
// stored origin host; an empty host keeps it.
func Open(ctx context.Context, path, host string, opts ...Option) (*Profile, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		return nil, errors.New("profile path is required")
	}
	if path != ":memory:" {
		if err := paths.EnsureDir(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "creating profile directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening profile")
	}
	// one connection keeps :memory: profiles in a single database
	db.SetMaxOpenConns(1)

	if err := initialise(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	p := &Profile{db: db, path: path}
	if err := p.load(ctx, host, o.fallbackHost); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "loading profile")
	}

	logging.FromContext(ctx).Debug("profile opened", slog.String("path", path), slog.String("host", host))
	return p, nil
}

func initialise(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return errors.Wrapf(err, "applying %s", p)
		}
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "reading schema version")
	}
	if version > schemaVersion {
		return errors.Newf("profile schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return errors.Wrap(err, "writing schema version")
	}
	return nil
}

// Path returns the profile file location.
func (p *Profile) Path() string {
	return p.path
}

// Close closes the database without saving.
func (p *Profile) Close() error {
	return errors.Wrap(p.db.Close(), "closing profile")
}

// Save replaces the stored rows with the current environment contents.
func (p *Profile) Save(ctx context.Context) error {
	err := runTx(ctx, p.db, func(tx *sql.Tx) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return errors.Wrapf(err, "clearing %s", t)
			}
		}

		steps := []func(context.Context, *sql.Tx) error{
			p.saveOrigin,
			p.saveKeyValues,
			p.saveCookies,
			p.saveDatabases,
			p.saveCaches,
			p.saveWorkers,
		}
		for _, step := range steps {
			if err := step(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	logging.FromContext(ctx).Debug("profile saved", slog.String("path", p.path))
	return nil
}

// runTx runs fn in a transaction, retrying while SQLite reports the
// database as busy.
func runTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for i := range maxRetries {
		if err = runOnce(ctx, db, fn); err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting to retry transaction")
		case <-time.After(time.Duration(100*(i+1)) * time.Millisecond):
		}
	}
	return err
}

func runOnce(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func marshalText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encoding column")
	}
	return string(data), nil
}

// areaFor maps a key/value backend to its kv.area value.
func areaFor(b snapshot.Backend) string {
	if b == snapshot.SessionStorage {
		return "session"
	}
	return "local"
}
