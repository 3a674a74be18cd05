package adapter

import (
	"context"
	"sort"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

// simpleAdapter mirrors localStorage or sessionStorage key by key.
type simpleAdapter struct {
	backend snapshot.Backend
	store   func() storage.KeyValue
}

func (a *simpleAdapter) Backend() snapshot.Backend { return a.backend }

func (a *simpleAdapter) Capture(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: a.backend}
	kv := a.store()
	if kv == nil {
		return res
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		res.fail(ctx, errors.Wrap(err, "listing keys"))
		return res
	}

	data := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := kv.Get(ctx, k)
		if err != nil {
			res.skip(ctx, k, err)
			continue
		}
		if !ok {
			continue
		}
		data[k] = v
	}

	s.SetSimpleStore(a.backend, data)
	res.Written = len(data)
	return res
}

func (a *simpleAdapter) Restore(ctx context.Context, s *snapshot.Snapshot) Result {
	res := Result{Backend: a.backend}
	kv := a.store()
	data := s.SimpleStore(a.backend)
	if kv == nil || len(data) == 0 {
		return res
	}

	for _, k := range sortedKeys(data) {
		if err := kv.Set(ctx, k, data[k]); err != nil {
			res.skip(ctx, k, err)
			continue
		}
		res.Written++
	}
	return res
}

func (a *simpleAdapter) Count(ctx context.Context) (int, error) {
	kv := a.store()
	if kv == nil {
		return 0, nil
	}
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing keys")
	}
	return len(keys), nil
}

func (a *simpleAdapter) Clear(ctx context.Context) Result {
	res := Result{Backend: a.backend}
	kv := a.store()
	if kv == nil {
		return res
	}

	n, err := a.Count(ctx)
	if err != nil {
		res.fail(ctx, err)
		return res
	}
	if err := kv.Clear(ctx); err != nil {
		res.fail(ctx, errors.Wrap(err, "clearing store"))
		return res
	}
	res.Written = n
	return res
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
