package adapter

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// workerAdapter is read-only: registrations depend on scripts served by
// the origin and cannot be re-created from a snapshot.
type workerAdapter struct {
	workers func() storage.ServiceWorkers
}

func (a *workerAdapter) Backend() snapshot.Backend { return snapshot.ServiceWorkers }

func (a *workerAdapter) Capture(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.ServiceWorkers}
	sw := a.workers()
	if sw == nil {
		return res
	}

	regs, err := sw.Registrations(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing registrations"))
		return res
	}
	if regs == nil {
		regs = []snapshot.ServiceWorker{}
	}
	s.ServiceWorkers = regs
	res.Written = len(regs)
	return res
}

// Restore never writes; each captured scope is reported as skipped.
func (a *workerAdapter) Restore(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: snapshot.ServiceWorkers}
	if len(s.ServiceWorkers) == 0 {
		return res
	}
	for _, reg := range s.ServiceWorkers {
		res.Skipped = append(res.Skipped, reg.Scope)
	}
	logging.FromContext(ctx).Info("service worker registrations are not re-applied",
		slog.String("backend", string(snapshot.ServiceWorkers)),
		slog.Int("registrations", len(res.Skipped)),
	)
	return res
}

func (a *workerAdapter) Count(ctx context.Context) (int, error) {
	sw := a.workers()
	if sw == nil {
		return 0, nil
	}
	regs, err := sw.Registrations(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing registrations")
	}
	return len(regs), nil
}

// Clear leaves registrations in place and reports them as skipped.
func (a *workerAdapter) Clear(ctx context.Context) Result {
	res := Result{Backend: snapshot.ServiceWorkers}
	sw := a.workers()
	if sw == nil {
		return res
	}
	regs, err := sw.Registrations(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing registrations"))
		return res
	}
	for _, reg := range regs {
		res.Skipped = append(res.Skipped, reg.Scope)
	}
	return res
}
