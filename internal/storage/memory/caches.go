package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/storage"
)

// Caches is an ordered set of named response caches.
type Caches struct {
	mu     *sync.Mutex
	names  []string
	byName map[string][]storage.Response
}

var _ storage.CacheStorage = (*Caches)(nil)

func (c *Caches) Names(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.names...), nil
}

func (c *Caches) Entries(_ context.Context, name string) ([]storage.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.byName[name]
	if !ok {
		return nil, errors.Wrapf(storage.ErrNotFound, "cache %q", name)
	}
	out := make([]storage.Response, len(entries))
	for i, r := range entries {
		out[i] = cloneResponse(r)
	}
	return out, nil
}

// Delete removes a cache; deleting a missing cache succeeds.
func (c *Caches) Delete(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byName[name]; !ok {
		return nil
	}
	delete(c.byName, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	return nil
}

// Create opens a cache, creating it when missing.
func (c *Caches) Create(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createLocked(name)
	return nil
}

// Put stores resp, replacing an entry with the same URL and method.
func (c *Caches) Put(_ context.Context, name string, resp storage.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[name]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "cache %q", name)
	}
	if resp.Request.Method == "" {
		resp.Request.Method = "GET"
	}
	resp = cloneResponse(resp)

	entries := c.byName[name]
	for i, existing := range entries {
		if existing.Request == resp.Request {
			entries[i] = resp
			return nil
		}
	}
	c.byName[name] = append(entries, resp)
	return nil
}

func (c *Caches) createLocked(name string) {
	if _, ok := c.byName[name]; ok {
		return
	}
	c.names = append(c.names, name)
	c.byName[name] = nil
}

func cloneResponse(r storage.Response) storage.Response {
	r.Headers = maps.Clone(r.Headers)
	r.Body = append([]byte(nil), r.Body...)
	return r
}
