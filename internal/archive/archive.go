package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/transfer"
	"github.com/thoreinstein/webstash/pkg/fileutil"
)

// Manager stores and retrieves archived artifacts.
type Manager struct {
	rootDir   string
	retention int
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the archive root directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.rootDir = dir
		}
	}
}

// WithRetention sets how many artifacts Save keeps per host.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithClock overrides the time source used for names and manifests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager rooted at paths.ArchiveDir unless overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:   paths.ArchiveDir(),
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the archive root.
func (m *Manager) Dir() string {
	return m.rootDir
}

// Save archives data exported from the snapshot described by meta and
// prunes the host beyond the retention count.
func (m *Manager) Save(meta snapshot.Meta, prefix string, data []byte, format codec.Format) (*Entry, error) {
	if len(data) == 0 {
		return nil, errors.New("artifact is empty")
	}

	host := transfer.SafeHost(meta.Host)
	dir := m.hostDir(host)
	if err := paths.EnsureDir(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating archive directory")
	}

	saved := m.now().UTC()
	name := m.uniqueName(dir, prefix, meta.Host, saved, format)

	sum := sha256.Sum256(data)
	entry := &Entry{
		Version:    ManifestVersion,
		Name:       name,
		Host:       host,
		SnapshotID: meta.ID,
		SavedAt:    saved,
		ExportedAt: meta.ExportedAt,
		Format:     format.String(),
		Size:       len(data),
		SHA256:     hex.EncodeToString(sum[:]),
		Path:       filepath.Join(dir, name),
	}
	for _, b := range meta.Backends {
		entry.Backends = append(entry.Backends, b.String())
	}

	if err := fileutil.AtomicWriteFile(entry.Path, data, transfer.FilePerm); err != nil {
		return nil, errors.Wrap(err, "writing artifact")
	}
	if err := fileutil.AtomicWriteYAML(entry.Path+manifestSuffix, entry, transfer.FilePerm); err != nil {
		os.Remove(entry.Path)
		return nil, errors.Wrap(err, "writing manifest")
	}

	if _, err := m.Prune(host, m.retention); err != nil {
		return entry, errors.Wrap(err, "pruning archive")
	}
	return entry, nil
}

// uniqueName bumps the timestamp until the name is free, so two saves in
// the same millisecond do not collide.
func (m *Manager) uniqueName(dir, prefix, host string, when time.Time, format codec.Format) string {
	for {
		name := transfer.FileName(prefix, host, when, format)
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		when = when.Add(time.Millisecond)
	}
}

// Hosts returns the hosts with archived artifacts, sorted.
func (m *Manager) Hosts() ([]string, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading archive directory")
	}

	var hosts []string
	for _, e := range entries {
		if e.IsDir() {
			hosts = append(hosts, e.Name())
		}
	}
	slices.Sort(hosts)
	return hosts, nil
}

// List returns the artifacts archived for host, newest first.
func (m *Manager) List(host string) ([]Entry, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}

	dir := m.hostDir(transfer.SafeHost(host))
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoArtifactsFound, "host %s", host)
		}
		return nil, errors.Wrap(err, "reading archive directory")
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), manifestSuffix) {
			continue
		}
		e, err := m.loadManifest(filepath.Join(dir, f.Name()))
		if err != nil {
			// skip manifests we cannot read
			continue
		}
		entries = append(entries, *e)
	}

	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrNoArtifactsFound, "host %s", host)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return entries, nil
}

// Latest returns the newest artifact for host.
func (m *Manager) Latest(host string) (*Entry, []byte, error) {
	entries, err := m.List(host)
	if err != nil {
		return nil, nil, err
	}
	return m.Get(host, entries[0].Name)
}

// Get loads an artifact and verifies it against its manifest.
func (m *Manager) Get(host, name string) (*Entry, []byte, error) {
	if host == "" {
		return nil, nil, errors.New("host is required")
	}
	if name == "" || name != filepath.Base(name) {
		return nil, nil, errors.Newf("invalid artifact name %q", name)
	}

	path := filepath.Join(m.hostDir(transfer.SafeHost(host)), name)
	entry, err := m.loadManifest(path + manifestSuffix)
	if err != nil {
		return nil, nil, err
	}

	data, err := fileutil.ReadFileWithLimit(path, fileutil.MaxArtifactSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, errors.Wrapf(ErrNoArtifactsFound, "artifact %s not found", name)
		}
		return nil, nil, errors.Wrap(err, "reading artifact")
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != entry.SHA256 {
		return nil, nil, errors.Wrapf(ErrArtifactCorrupted, "artifact %s hash mismatch", name)
	}
	return entry, data, nil
}

// Prune removes all but the newest keep artifacts for host and returns how
// many were removed.
func (m *Manager) Prune(host string, keep int) (int, error) {
	if keep < 0 {
		return 0, errors.New("keep must be non-negative")
	}

	entries, err := m.List(host)
	if err != nil {
		if errors.Is(err, ErrNoArtifactsFound) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for i := keep; i < len(entries); i++ {
		if err := os.Remove(entries[i].Path); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "removing artifact %s", entries[i].Name)
		}
		if err := os.Remove(entries[i].Path + manifestSuffix); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "removing manifest %s", entries[i].Name)
		}
		removed++
	}
	return removed, nil
}

func (m *Manager) loadManifest(path string) (*Entry, error) {
	data, err := fileutil.ReadFileWithLimit(path, 1<<20)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrNoArtifactsFound, "manifest %s not found", filepath.Base(path))
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	if e.Version > ManifestVersion {
		return nil, errors.Newf("unsupported manifest version %d", e.Version)
	}
	e.Path = strings.TrimSuffix(path, manifestSuffix)
	return &e, nil
}

func (m *Manager) hostDir(host string) string {
	return filepath.Join(m.rootDir, host)
}
