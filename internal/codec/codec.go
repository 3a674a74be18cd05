package codec

import (
	"bytes"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

// Sentinel errors for encoding and decoding.
var (
	// ErrPasswordRequired indicates encryption or decryption without a password.
	ErrPasswordRequired = errors.New("password required")

	// ErrDecryption indicates a wrong password or a modified payload.
	ErrDecryption = errors.New("decryption failed: wrong password or corrupted data")

	// ErrFormat indicates bytes that do not decode to a snapshot.
	ErrFormat = errors.New("unrecognised artifact format")

	// ErrDecompression indicates an invalid compressed stream. Decode treats
	// it as a cue to fall back to plain text.
	ErrDecompression = errors.New("decompression failed")
)

// EncodeOptions controls the layers applied by Encode.
type EncodeOptions struct {
	Compress bool
	Encrypt  bool
	Password string

	// Compressor overrides the default Gzip.
	Compressor Compressor
}

// SizeInfo reports byte counts after each stage. Compressed and Encrypted
// are zero when the stage did not run.
type SizeInfo struct {
	Original            int
	Compressed          int
	Encrypted           int
	Final               int
	CompressionFallback bool
}

// Ratio is the fraction saved relative to the original size. It is
// negative when the container grew.
func (s SizeInfo) Ratio() float64 {
	if s.Original == 0 {
		return 0
	}
	return 1 - float64(s.Final)/float64(s.Original)
}

// Container is an encoded snapshot.
type Container struct {
	Data   []byte
	Format Format
	Size   SizeInfo
}

// Encode serialises s and applies the requested layers. A compression
// failure is not fatal: the text is used as-is, Size.CompressionFallback
// is set and the format is reported accordingly.
func Encode(s *snapshot.Snapshot, opts EncodeOptions) (*Container, error) {
	if opts.Encrypt && opts.Password == "" {
		return nil, ErrPasswordRequired
	}

	text, err := snapshot.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "serialising snapshot")
	}

	c := &Container{Data: text, Format: FormatJSON}
	c.Size.Original = len(text)

	if opts.Compress {
		comp := opts.Compressor
		if comp == nil {
			comp = Gzip{}
		}
		if zipped, err := comp.Compress(text); err == nil {
			c.Data = zipped
			c.Format = FormatGzip
		} else {
			c.Size.CompressionFallback = true
		}
		c.Size.Compressed = len(c.Data)
	}

	if opts.Encrypt {
		sealed, err := Encrypt(c.Data, opts.Password)
		if err != nil {
			return nil, errors.Wrap(err, "encrypting container")
		}
		c.Data = sealed
		c.Format = FormatEncrypted
		c.Size.Encrypted = len(sealed)
	}

	c.Size.Final = len(c.Data)
	return c, nil
}

// DecodeOptions carries the caller's format hint and password.
type DecodeOptions struct {
	Hint     Format
	Password string

	// Compressor overrides the default Gzip.
	Compressor Compressor
}

// Decoded is the result of Decode.
type Decoded struct {
	Snapshot *snapshot.Snapshot

	// Format is the outermost layer actually found.
	Format Format

	// Text is the serialised snapshot after all layers were removed.
	Text []byte
}

// Decode reverses Encode.
//
// With an encrypted hint a password is mandatory, and the decrypted bytes
// are decompressed when possible, else read as text. With a gzip hint the
// bytes are decompressed when possible, else read as text. Otherwise the
// bytes are sniffed: JSON, then gzip, then ciphertext when a password is
// given. Without a password, unknown input needs one (ErrPasswordRequired)
// while input hinted as JSON is simply malformed (ErrFormat).
func Decode(data []byte, opts DecodeOptions) (*Decoded, error) {
	comp := opts.Compressor
	if comp == nil {
		comp = Gzip{}
	}

	var (
		text   []byte
		format Format
		err    error
	)

	switch opts.Hint {
	case FormatEncrypted:
		text, err = decryptLayer(data, opts.Password, comp)
		format = FormatEncrypted
	case FormatGzip:
		text, format = inflateOrText(data, comp)
	default:
		text, format, err = sniffLayers(data, opts, comp)
	}
	if err != nil {
		return nil, err
	}

	s, err := snapshot.Unmarshal(text)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s container", format), ErrFormat)
	}
	return &Decoded{Snapshot: s, Format: format, Text: text}, nil
}

func sniffLayers(data []byte, opts DecodeOptions, comp Compressor) ([]byte, Format, error) {
	switch {
	case isJSON(data):
		return bytes.TrimSpace(data), FormatJSON, nil
	case isGzip(data):
		out, err := comp.Decompress(data)
		if err == nil {
			return out, FormatGzip, nil
		}
		// a salt can start with the gzip magic too
		if opts.Password == "" || len(data) < SaltSize+NonceSize+TagSize {
			return nil, FormatGzip, errors.Mark(err, ErrFormat)
		}
		text, err := decryptLayer(data, opts.Password, comp)
		return text, FormatEncrypted, err
	case opts.Password != "":
		text, err := decryptLayer(data, opts.Password, comp)
		return text, FormatEncrypted, err
	case opts.Hint == FormatJSON:
		return nil, FormatUnknown, errors.Wrap(ErrFormat, "content is not JSON")
	default:
		return nil, FormatUnknown, errors.Wrap(ErrPasswordRequired, "content is neither JSON nor gzip")
	}
}

func decryptLayer(data []byte, password string, comp Compressor) ([]byte, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	plain, err := Decrypt(data, password)
	if err != nil {
		return nil, err
	}
	text, _ := inflateOrText(plain, comp)
	return text, nil
}

// inflateOrText decompresses data, or returns it unchanged when it is not
// a valid compressed stream.
func inflateOrText(data []byte, comp Compressor) ([]byte, Format) {
	out, err := comp.Decompress(data)
	if err != nil {
		return data, FormatJSON
	}
	return out, FormatGzip
}
