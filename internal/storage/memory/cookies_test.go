package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/webstash/internal/storage"
)

func TestCookieJar(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env := New(storage.Origin{}, WithClock(func() time.Time { return now }))
	jar := env.Cookies()

	require.NoError(t, jar.SetCookie(ctx, "a=1; path=/"))
	require.NoError(t, jar.SetCookie(ctx, "b=x=y; expires=Thu, 01 Jan 2026 00:00:00 GMT; path=/"))
	require.NoError(t, jar.SetCookie(ctx, "flag"))

	got, err := jar.CookieString(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a=1; b=x=y; flag", got)

	// overwrite keeps position
	require.NoError(t, jar.SetCookie(ctx, "a=2"))
	got, _ = jar.CookieString(ctx)
	assert.Equal(t, "a=2; b=x=y; flag", got)

	// expiry in the past deletes
	require.NoError(t, jar.SetCookie(ctx, "a=; expires=Thu, 01 Jan 1970 00:00:00 GMT; path=/"))
	require.NoError(t, jar.SetCookie(ctx, "b=; max-age=0"))
	got, _ = jar.CookieString(ctx)
	assert.Equal(t, "flag", got)

	// deleting a cookie that does not exist is a no-op
	require.NoError(t, jar.SetCookie(ctx, "zz=; expires=Thu, 01 Jan 1970 00:00:00 GMT"))
	assert.Equal(t, 1, env.Jar().Len())
}
