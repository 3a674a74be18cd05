package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

func TestCaches(t *testing.T) {
	ctx := context.Background()
	c := New(storage.Origin{}).Caches()

	require.NoError(t, c.Create(ctx, "v2"))
	require.NoError(t, c.Create(ctx, "v1"))
	require.NoError(t, c.Create(ctx, "v2"))

	names, err := c.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v1"}, names)

	req := storage.Request{URL: "https://example.com/a.js"}
	require.NoError(t, c.Put(ctx, "v1", storage.Response{Request: req, Status: 200, Body: []byte("one")}))
	require.NoError(t, c.Put(ctx, "v1", storage.Response{Request: req, Status: 200, Body: []byte("two")}))
	require.NoError(t, c.Put(ctx, "v1", storage.Response{Request: storage.Request{URL: "https://example.com/b.js"}, Status: 200}))

	entries, err := c.Entries(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "GET", entries[0].Request.Method)
	assert.Equal(t, "two", string(entries[0].Body))

	assert.True(t, errors.Is(c.Put(ctx, "missing", storage.Response{}), storage.ErrNotFound))
	_, err = c.Entries(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, c.Delete(ctx, "v2"))
	require.NoError(t, c.Delete(ctx, "v2"))
	names, _ = c.Names(ctx)
	assert.Equal(t, []string{"v1"}, names)
}

func TestWorkers(t *testing.T) {
	env := New(storage.Origin{})
	env.Workers().Register(snapshot.ServiceWorker{Scope: "/", Active: &snapshot.WorkerScript{ScriptURL: "/sw.js", State: "activated"}})
	env.Workers().Register(snapshot.ServiceWorker{Scope: "/", UpdateViaCache: "none"})
	env.Workers().Register(snapshot.ServiceWorker{Scope: "/app/"})

	regs, err := env.ServiceWorkers().Registrations(context.Background())
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "none", regs[0].UpdateViaCache)
}
