package adapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Result reports the outcome of one adapter operation.
type Result struct {
	Backend snapshot.Backend

	// Written counts items captured, restored or removed.
	Written int

	// Skipped lists identifiers of items that failed individually.
	Skipped []string

	// Err is set when the whole backend failed.
	Err error
}

func (r *Result) skip(ctx context.Context, id string, err error) {
	r.Skipped = append(r.Skipped, id)
	logging.FromContext(ctx).Debug("item skipped",
		slog.String("backend", string(r.Backend)),
		slog.String("key", id),
		slog.Any("error", err),
	)
}

func (r *Result) fail(ctx context.Context, err error) {
	r.Err = err
	logging.FromContext(ctx).Warn("backend failed",
		slog.String("backend", string(r.Backend)),
		slog.Any("error", err),
	)
}

// Adapter moves one backend between an environment and a snapshot.
type Adapter interface {
	Backend() snapshot.Backend

	// Capture fills the adapter's field of s. On failure the field is
	// left as it was.
	Capture(ctx context.Context, s *snapshot.Snapshot) Result

	// Restore writes the adapter's field of s into the environment.
	Restore(ctx context.Context, s *snapshot.Snapshot) Result

	// Count returns the number of items currently stored.
	Count(ctx context.Context) (int, error)

	// Clear removes everything the backend holds.
	Clear(ctx context.Context) Result
}

// New returns the adapter for backend b.
func New(env storage.Environment, b snapshot.Backend) Adapter {
	switch b {
	case snapshot.LocalStorage:
		return &simpleAdapter{backend: b, store: env.LocalStorage}
	case snapshot.SessionStorage:
		return &simpleAdapter{backend: b, store: env.SessionStorage}
	case snapshot.Cookies:
		return &cookieAdapter{jar: env.Cookies, now: time.Now}
	case snapshot.IndexedDB:
		return &indexedDBAdapter{idb: env.IndexedDB}
	case snapshot.CacheStorage:
		return &cacheAdapter{caches: env.Caches}
	case snapshot.ServiceWorkers:
		return &workerAdapter{workers: env.ServiceWorkers}
	default:
		return nil
	}
}

// For returns adapters for the given backends in order, or for every
// backend when none are named. Unknown backends are ignored.
func For(env storage.Environment, backends ...snapshot.Backend) []Adapter {
	if len(backends) == 0 {
		backends = snapshot.AllBackends()
	}
	out := make([]Adapter, 0, len(backends))
	for _, b := range backends {
		if a := New(env, b); a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Capture builds a snapshot by running each adapter in turn. The snapshot
// always has every container initialised; a failed adapter leaves its
// container empty.
func Capture(ctx context.Context, meta snapshot.Meta, adapters []Adapter) (*snapshot.Snapshot, []Result) {
	s := snapshot.New(meta)
	results := make([]Result, 0, len(adapters))
	for _, a := range adapters {
		results = append(results, a.Capture(ctx, s))
	}
	return s, results
}

// Total sums Written across results.
func Total(results []Result) int {
	var n int
	for _, r := range results {
		n += r.Written
	}
	return n
}
