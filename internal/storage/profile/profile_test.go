package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/webstash/internal/adapter"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage"
)

func testContext(t *testing.T) context.Context {
	return logging.NewContext(context.Background(), logging.ForTest(t))
}

func capture(t *testing.T, ctx context.Context, env storage.Environment) *snapshot.Snapshot {
	t.Helper()
	s, results := adapter.Capture(ctx, snapshot.Meta{}, adapter.For(env))
	for _, r := range results {
		require.NoError(t, r.Err, r.Backend)
	}
	return s
}

func populate(t *testing.T, ctx context.Context, p *Profile) {
	t.Helper()

	require.NoError(t, p.Local().Set(ctx, "theme", "dark"))
	require.NoError(t, p.Local().Set(ctx, "lang", "en"))
	require.NoError(t, p.Session().Set(ctx, "tab", "3"))
	require.NoError(t, p.Jar().SetCookie(ctx, "sid=abc; path=/"))
	require.NoError(t, p.Jar().SetCookie(ctx, "pref=1"))

	db, err := p.Databases().Create(ctx, "app", 3, []storage.StoreSchema{
		{
			Name:          "todos",
			KeyPath:       snapshot.SinglePath("id"),
			AutoIncrement: true,
			Indexes:       []snapshot.Index{{Name: "by_title", KeyPath: snapshot.SinglePath("title"), Unique: true}},
		},
		{Name: "blobs"},
	})
	require.NoError(t, err)
	errs, err := db.Write(ctx, "todos", []snapshot.Record{
		{Value: json.RawMessage(`{"title":"a"}`)},
		{Value: json.RawMessage(`{"id":10,"title":"b"}`)},
	})
	require.NoError(t, err)
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	errs, err = db.Write(ctx, "blobs", []snapshot.Record{
		{Key: json.RawMessage(`"k1"`), Value: json.RawMessage(`[1,2,3]`)},
	})
	require.NoError(t, err)
	require.NoError(t, errs[0])
	require.NoError(t, db.Close())

	require.NoError(t, p.CacheStore().Create(ctx, "assets"))
	require.NoError(t, p.CacheStore().Put(ctx, "assets", storage.Response{
		Request:    storage.Request{URL: "https://example.com/logo.png", Method: "GET"},
		Status:     200,
		StatusText: "OK",
		Headers:    map[string]string{"content-type": "image/png"},
		Body:       []byte{0x89, 0x50, 0x4e, 0x47},
	}))
	require.NoError(t, p.CacheStore().Create(ctx, "empty"))

	p.Workers().Register(snapshot.ServiceWorker{
		Scope:  "https://example.com/",
		Active: &snapshot.WorkerScript{ScriptURL: "https://example.com/sw.js", State: "activated"},
	})
}

func TestSaveAndReopen(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "nested", "profile.db")

	p, err := Open(ctx, path, "example.com")
	require.NoError(t, err)
	populate(t, ctx, p)
	want := capture(t, ctx, p)
	require.NoError(t, p.Save(ctx))
	require.NoError(t, p.Close())

	p, err = Open(ctx, path, "")
	require.NoError(t, err)
	defer p.Close()

	origin, err := p.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "example.com", origin.Host)
	assert.Equal(t, path, p.Path())

	got := capture(t, ctx, p)
	assert.Equal(t, want.LocalStorage, got.LocalStorage)
	assert.Equal(t, want.SessionStorage, got.SessionStorage)
	assert.Equal(t, want.Cookies, got.Cookies)
	assert.Equal(t, want.IndexedDB, got.IndexedDB)
	assert.Equal(t, want.CacheStorage, got.CacheStorage)
	assert.Equal(t, want.ServiceWorkers, got.ServiceWorkers)

	keys, err := p.Local().Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme", "lang"}, keys, "insertion order survives")

	names, err := p.CacheStore().Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets", "empty"}, names)
}

func TestSave_ReplacesPreviousRows(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "profile.db")

	p, err := Open(ctx, path, "example.com")
	require.NoError(t, err)
	populate(t, ctx, p)
	require.NoError(t, p.Save(ctx))

	require.NoError(t, p.Local().Clear(ctx))
	require.NoError(t, p.Databases().Delete(ctx, "app"))
	require.NoError(t, p.Save(ctx))
	require.NoError(t, p.Close())

	p, err = Open(ctx, path, "")
	require.NoError(t, err)
	defer p.Close()

	assert.Zero(t, p.Local().Len())
	assert.Equal(t, 1, p.Session().Len())
	assert.Zero(t, p.Databases().Len())
}

func TestOpen_HostOverride(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "profile.db")

	p, err := Open(ctx, path, "a.example")
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx))
	require.NoError(t, p.Close())

	p, err = Open(ctx, path, "b.example")
	require.NoError(t, err)
	defer p.Close()

	origin, err := p.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b.example", origin.Host)
}

func TestOpen_Memory(t *testing.T) {
	ctx := testContext(t)

	p, err := Open(ctx, ":memory:", "example.com")
	require.NoError(t, err)
	defer p.Close()

	populate(t, ctx, p)
	require.NoError(t, p.Save(ctx))

	var n int
	require.NoError(t, p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM idb_records").Scan(&n))
	assert.Equal(t, 3, n)
	require.NoError(t, p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(testContext(t), "", "example.com")
	assert.Error(t, err)
}

func TestRunTx_Rollback(t *testing.T) {
	ctx := testContext(t)

	p, err := Open(ctx, ":memory:", "example.com")
	require.NoError(t, err)
	defer p.Close()

	err = runTx(ctx, p.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO cookies (pos, name, value) VALUES (0, 'a', '1')"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var n int
	require.NoError(t, p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cookies").Scan(&n))
	assert.Zero(t, n)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(errString("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isBusy(errString("no such table")))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestOpen_FallbackHost(t *testing.T) {
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "profile.db")

	p, err := Open(ctx, path, "", WithFallbackHost("localhost"))
	require.NoError(t, err)
	origin, err := p.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "localhost", origin.Host)
	require.NoError(t, p.Save(ctx))
	require.NoError(t, p.Close())

	p, err = Open(ctx, path, "", WithFallbackHost("ignored.example"))
	require.NoError(t, err)
	defer p.Close()
	origin, err = p.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "localhost", origin.Host)
}
