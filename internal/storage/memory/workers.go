package memory

import (
	"context"
	"sync"

	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Workers holds service-worker registrations.
type Workers struct {
	mu   *sync.Mutex
	regs []snapshot.ServiceWorker
}

var _ storage.ServiceWorkers = (*Workers)(nil)

// Register adds a registration, replacing one with the same scope.
func (w *Workers) Register(reg snapshot.ServiceWorker) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, r := range w.regs {
		if r.Scope == reg.Scope {
			w.regs[i] = reg
			return
		}
	}
	w.regs = append(w.regs, reg)
}

func (w *Workers) Registrations(context.Context) ([]snapshot.ServiceWorker, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]snapshot.ServiceWorker{}, w.regs...), nil
}
