package codec

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/thoreinstein/webstash/internal/errors"
)

// MaxDecompressedSize caps gzip expansion.
const MaxDecompressedSize = 1 << 30

// Compressor is a reversible byte transform.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	// Decompress fails with an error marked ErrDecompression on bad input.
	Decompress(data []byte) ([]byte, error)
}

// Gzip is the default Compressor.
type Gzip struct {
	// Level is a compress/gzip level; zero means gzip.DefaultCompression.
	Level int
}

func (g Gzip) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "creating gzip writer")
	}
	if _, err := zw.Write(data); err != nil {
		return nil, errors.Wrap(err, "compressing")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finishing gzip stream")
	}
	return buf.Bytes(), nil
}

func (g Gzip) Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "opening gzip stream"), ErrDecompression)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, MaxDecompressedSize+1))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decompressing"), ErrDecompression)
	}
	if len(out) > MaxDecompressedSize {
		return nil, errors.Wrapf(ErrDecompression, "output exceeds %d bytes", MaxDecompressedSize)
	}
	return out, nil
}
