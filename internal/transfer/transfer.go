package transfer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
	"github.com/thoreinstein/webstash/pkg/fileutil"
)

// DefaultPrefix names full multi-backend exports.
const DefaultPrefix = "storage"

// FilePerm is the mode artifacts are written with.
const FilePerm = 0o600

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds the artifact file name for an export taken at when.
func FileName(prefix, host string, when time.Time, format codec.Format) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	suffix := format.Suffix()
	if suffix == "" {
		suffix = codec.FormatJSON.Suffix()
	}
	return prefix + "-" + SafeHost(host) + "-" + strconv.FormatInt(when.UnixMilli(), 10) + suffix
}

// SafeHost maps a host to a string usable as a file name component.
func SafeHost(host string) string {
	host = unsafeChars.ReplaceAllString(host, "_")
	if host == "" || host == "." || host == ".." {
		return "unknown"
	}
	return host
}

// WriteFile atomically writes data to dir/name, creating dir if needed,
// and returns the full path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", errors.Newf("invalid artifact name %q", name)
	}
	if err := paths.EnsureDir(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(dir, name)
	if err := fileutil.AtomicWriteFile(path, data, FilePerm); err != nil {
		return "", errors.Wrap(err, "writing artifact")
	}
	return path, nil
}

// ReadFile reads an artifact and returns its bytes with a format hint
// derived from the file name.
func ReadFile(path string) ([]byte, codec.Format, error) {
	data, err := fileutil.ReadFileWithLimit(path, fileutil.MaxArtifactSize)
	if err != nil {
		return nil, codec.FormatUnknown, errors.Wrapf(err, "reading artifact %s", path)
	}
	return data, codec.FormatFromName(path), nil
}

// EncodeText renders data as standard base64 for pasting.
func EncodeText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeText accepts pasted text. Valid JSON is returned unchanged with a
// FormatJSON hint; anything else must be base64 and is decoded with no
// hint.
func DecodeText(text string) ([]byte, codec.Format, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, codec.FormatUnknown, errors.Wrap(codec.ErrFormat, "empty input")
	}
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), codec.FormatJSON, nil
	}

	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, trimmed)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, codec.FormatUnknown, errors.Mark(errors.Wrap(err, "decoding base64"), codec.ErrFormat)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, codec.FormatUnknown, errors.Wrap(codec.ErrFormat, "empty input")
	}
	return data, codec.FormatUnknown, nil
}
