package archive

import (
	"time"

	"github.com/thoreinstein/webstash/internal/errors"
)

// ManifestVersion is the manifest format version.
const ManifestVersion = 1

// DefaultRetention is the number of artifacts kept per host.
const DefaultRetention = 10

// manifestSuffix is appended to an artifact name to form its manifest name.
const manifestSuffix = ".yaml"

// Sentinel errors for archive operations.
var (
	// ErrNoArtifactsFound indicates nothing is archived for the host.
	ErrNoArtifactsFound = errors.New("no artifacts found")

	// ErrArtifactCorrupted indicates the artifact bytes do not match the
	// hash in its manifest.
	ErrArtifactCorrupted = errors.New("artifact corrupted")
)

// Entry describes one archived artifact.
type Entry struct {
	Version    int       `yaml:"version"`
	Name       string    `yaml:"name"`
	Host       string    `yaml:"host"`
	SnapshotID string    `yaml:"snapshot_id,omitempty"`
	SavedAt    time.Time `yaml:"saved_at"`
	ExportedAt time.Time `yaml:"exported_at"`
	Format     string    `yaml:"format"`
	Size       int       `yaml:"size"`
	SHA256     string    `yaml:"sha256"`
	Backends   []string  `yaml:"backends,omitempty"`

	// Path is the artifact location, filled in when loading.
	Path string `yaml:"-"`
}
