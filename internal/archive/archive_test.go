package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testMeta(host string) snapshot.Meta {
	return snapshot.Meta{
		Host:       host,
		ID:         "id-" + host,
		ExportedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Backends:   []snapshot.Backend{snapshot.LocalStorage, snapshot.Cookies},
	}
}

func TestSaveAndGet(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(WithDir(dir), WithClock(tickingClock()))

	entry, err := m.Save(testMeta("example.com"), "", []byte("payload"), codec.FormatGzip)
	require.NoError(t, err)

	assert.Equal(t, "example.com", entry.Host)
	assert.Equal(t, "id-example.com", entry.SnapshotID)
	assert.Equal(t, "gzip", entry.Format)
	assert.Equal(t, 7, entry.Size)
	assert.Equal(t, []string{"localStorage", "cookies"}, entry.Backends)
	assert.Equal(t, filepath.Join(dir, "example.com", entry.Name), entry.Path)
	assert.Equal(t, ".gz", filepath.Ext(entry.Name))

	info, err := os.Stat(entry.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, data, err := m.Get("example.com", entry.Name)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, entry.SHA256, got.SHA256)
	assert.True(t, entry.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, entry.Path, got.Path)
}

func TestSave_SameInstantDoesNotCollide(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	m := NewManager(WithDir(t.TempDir()), WithClock(func() time.Time { return fixed }))

	a, err := m.Save(testMeta("example.com"), "", []byte("a"), codec.FormatJSON)
	require.NoError(t, err)
	b, err := m.Save(testMeta("example.com"), "", []byte("b"), codec.FormatJSON)
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)

	entries, err := m.List("example.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, b.Name, entries[0].Name)
}

func TestSave_Empty(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()))
	_, err := m.Save(testMeta("example.com"), "", nil, codec.FormatJSON)
	assert.Error(t, err)
}

func TestList_NewestFirst(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()), WithClock(tickingClock()))

	var names []string
	for range 3 {
		e, err := m.Save(testMeta("example.com"), "", []byte("x"), codec.FormatJSON)
		require.NoError(t, err)
		names = append(names, e.Name)
	}

	entries, err := m.List("example.com")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, names[2], entries[0].Name)
	assert.Equal(t, names[0], entries[2].Name)
}

func TestList_NoArtifacts(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()))

	_, err := m.List("example.com")
	assert.True(t, errors.Is(err, ErrNoArtifactsFound))

	_, err = m.List("")
	assert.Error(t, err)
}

func TestSave_AppliesRetention(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()), WithRetention(2), WithClock(tickingClock()))

	for range 4 {
		_, err := m.Save(testMeta("example.com"), "", []byte("x"), codec.FormatJSON)
		require.NoError(t, err)
	}

	entries, err := m.List("example.com")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(WithDir(dir), WithClock(tickingClock()))

	for range 3 {
		_, err := m.Save(testMeta("example.com"), "", []byte("x"), codec.FormatJSON)
		require.NoError(t, err)
	}

	removed, err := m.Prune("example.com", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files, err := os.ReadDir(filepath.Join(dir, "example.com"))
	require.NoError(t, err)
	assert.Len(t, files, 2, "one artifact and its manifest remain")

	removed, err = m.Prune("other.example", 1)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = m.Prune("example.com", -1)
	assert.Error(t, err)

	removed, err = m.Prune("example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestHosts(t *testing.T) {
	m := NewManager(WithDir(filepath.Join(t.TempDir(), "archive")))

	hosts, err := m.Hosts()
	require.NoError(t, err)
	assert.Empty(t, hosts)

	for _, h := range []string{"b.example", "a.example"} {
		_, err := m.Save(testMeta(h), "", []byte("x"), codec.FormatJSON)
		require.NoError(t, err)
	}

	hosts, err = m.Hosts()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example", "b.example"}, hosts)
}

func TestGet_Corrupted(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()))

	e, err := m.Save(testMeta("example.com"), "", []byte("original"), codec.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.Path, []byte("tampered"), 0o600))

	_, _, err = m.Get("example.com", e.Name)
	assert.True(t, errors.Is(err, ErrArtifactCorrupted))
}

func TestGet_Invalid(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()))

	_, _, err := m.Get("example.com", "../x.json")
	assert.Error(t, err)

	_, _, err = m.Get("example.com", "missing.json")
	assert.True(t, errors.Is(err, ErrNoArtifactsFound))
}

func TestLatest(t *testing.T) {
	m := NewManager(WithDir(t.TempDir()), WithClock(tickingClock()))

	_, err := m.Save(testMeta("example.com"), "", []byte("old"), codec.FormatJSON)
	require.NoError(t, err)
	_, err = m.Save(testMeta("example.com"), "localStorage", []byte("new"), codec.FormatJSON)
	require.NoError(t, err)

	e, data, err := m.Latest("example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
	assert.Contains(t, e.Name, "localStorage-")
}
