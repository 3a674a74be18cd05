package fileutil

import (
	"io"
	"os"

	"github.com/thoreinstein/webstash/internal/errors"
)

// MaxArtifactSize is the largest artifact webstash will read (256MB).
const MaxArtifactSize = 256 << 20

// ErrFileTooLarge indicates that input exceeded the read limit.
var ErrFileTooLarge = errors.New("input exceeds maximum size")

// ReadFileWithLimit reads a file of at most limit bytes.
func ReadFileWithLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	// fail fast when the size is already known
	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	return ReadAllWithLimit(f, limit)
}

// ReadAllWithLimit reads r until EOF, failing once more than limit bytes arrive.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "limit %d bytes", limit)
	}
	return data, nil
}
