package codec

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
)

// Format is the outermost layer of a container.
type Format int

// Container formats.
const (
	FormatUnknown Format = iota
	FormatJSON
	FormatGzip
	FormatEncrypted
)

var gzipMagic = []byte{0x1f, 0x8b}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatGzip:
		return "gzip"
	case FormatEncrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Suffix returns the file suffix for f, or "" for FormatUnknown.
func (f Format) Suffix() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatGzip:
		return ".gz"
	case FormatEncrypted:
		return ".enc"
	default:
		return ""
	}
}

// FormatFromName maps a file name's suffix to a format hint.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".gz":
		return FormatGzip
	case ".enc":
		return FormatEncrypted
	default:
		return FormatUnknown
	}
}

// Sniff detects the format from the bytes alone. Anything that is neither
// JSON nor gzip but long enough to hold salt, nonce and tag is reported as
// encrypted; shorter input is unknown.
func Sniff(data []byte) Format {
	switch {
	case isJSON(data):
		return FormatJSON
	case isGzip(data):
		return FormatGzip
	case len(data) >= SaltSize+NonceSize+TagSize:
		return FormatEncrypted
	default:
		return FormatUnknown
	}
}

func isJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && json.Valid(trimmed)
}

func isGzip(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}
