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

func TestKeyValue_Basics(t *testing.T) {
	ctx := context.Background()
	kv := New(storage.Origin{Host: "example.com"}).LocalStorage()

	require.NoError(t, kv.Set(ctx, "b", "2"))
	require.NoError(t, kv.Set(ctx, "a", "1"))
	require.NoError(t, kv.Set(ctx, "b", "3"))

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, keys)

	v, ok, err := kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	require.NoError(t, kv.Remove(ctx, "b"))
	require.NoError(t, kv.Remove(ctx, "missing"))
	_, ok, _ = kv.Get(ctx, "b")
	assert.False(t, ok)

	require.NoError(t, kv.Clear(ctx))
	keys, _ = kv.Keys(ctx)
	assert.Empty(t, keys)
}

func TestKeyValue_Quota(t *testing.T) {
	ctx := context.Background()
	env := New(storage.Origin{}, WithQuota(6))

	require.NoError(t, env.Local().Set(ctx, "ab", "cd"))
	err := env.Local().Set(ctx, "ef", "gh")
	assert.True(t, errors.Is(err, storage.ErrQuotaExceeded), "got %v", err)

	// replacing an existing value only counts the difference
	require.NoError(t, env.Local().Set(ctx, "ab", "cdef"))
	assert.Equal(t, 1, env.Local().Len())

	// session has its own budget
	require.NoError(t, env.Session().Set(ctx, "ef", "gh"))
}

func TestKeyValue_FailKeys(t *testing.T) {
	ctx := context.Background()
	env := New(storage.Origin{})
	env.Local().FailKeys("bad")

	assert.True(t, errors.Is(env.Local().Set(ctx, "bad", "x"), storage.ErrQuotaExceeded))
	assert.NoError(t, env.Local().Set(ctx, "good", "x"))
}

func TestEnvironment_Without(t *testing.T) {
	env := New(storage.Origin{}, Without(snapshot.Cookies, snapshot.CacheStorage))

	assert.Nil(t, env.Cookies())
	assert.Nil(t, env.Caches())
	assert.NotNil(t, env.LocalStorage())
	assert.NotNil(t, env.IndexedDB())
}
