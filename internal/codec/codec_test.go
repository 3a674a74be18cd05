package codec

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

const password = "correct horse"

func sample() *snapshot.Snapshot {
	s := snapshot.New(snapshot.Meta{
		Host:       "example.com",
		ExportedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Version:    snapshot.Version,
	})
	s.LocalStorage["a"] = "1"
	s.LocalStorage["b"] = "2"
	s.Cookies["sid"] = "xyz"
	s.IndexedDB["app"] = snapshot.Database{Version: 2, Stores: map[string]snapshot.ObjectStore{
		"notes": {AutoIncrement: true, Records: []snapshot.Record{
			{Key: json.RawMessage(`1`), Value: json.RawMessage(`{"t":"hello"}`)},
		}},
	}}
	return s
}

type failingCompressor struct{}

func (failingCompressor) Compress([]byte) ([]byte, error) { return nil, errors.New("boom") }
func (failingCompressor) Decompress([]byte) ([]byte, error) {
	return nil, errors.Wrap(ErrDecompression, "boom")
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		compress bool
		encrypt  bool
		want     Format
	}{
		{compress: false, encrypt: false, want: FormatJSON},
		{compress: true, encrypt: false, want: FormatGzip},
		{compress: false, encrypt: true, want: FormatEncrypted},
		{compress: true, encrypt: true, want: FormatEncrypted},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("compress=%v,encrypt=%v", tt.compress, tt.encrypt), func(t *testing.T) {
			s := sample()
			opts := EncodeOptions{Compress: tt.compress, Encrypt: tt.encrypt}
			if tt.encrypt {
				opts.Password = password
			}

			c, err := Encode(s, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Format)
			assert.Equal(t, len(c.Data), c.Size.Final)

			// decode both with the matching hint and by sniffing alone
			for _, hint := range []Format{c.Format, FormatUnknown} {
				d, err := Decode(c.Data, DecodeOptions{Hint: hint, Password: opts.Password})
				require.NoError(t, err, "hint %s", hint)
				assert.Equal(t, tt.want, d.Format)
				assert.Equal(t, s.LocalStorage, d.Snapshot.LocalStorage)
				assert.Equal(t, s.Cookies, d.Snapshot.Cookies)
				assert.Equal(t, s.Meta, d.Snapshot.Meta)
				assert.Equal(t, s.IndexedDB["app"].Stores["notes"].Records, d.Snapshot.IndexedDB["app"].Stores["notes"].Records)
			}
		})
	}
}

func TestEncode_SizeInfo(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{Compress: true, Encrypt: true, Password: password})
	require.NoError(t, err)

	assert.Positive(t, c.Size.Original)
	assert.Positive(t, c.Size.Compressed)
	assert.Equal(t, c.Size.Compressed+SaltSize+NonceSize+TagSize, c.Size.Encrypted)
	assert.Equal(t, c.Size.Encrypted, c.Size.Final)
	assert.False(t, c.Size.CompressionFallback)
}

func TestEncode_CompressionFallback(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{Compress: true, Compressor: failingCompressor{}})
	require.NoError(t, err)
	assert.True(t, c.Size.CompressionFallback)
	assert.Equal(t, FormatJSON, c.Format)
	assert.Equal(t, ".json", c.Format.Suffix())
	assert.Equal(t, c.Size.Original, c.Size.Final)

	d, err := Decode(c.Data, DecodeOptions{Hint: FormatFromName("x" + c.Format.Suffix())})
	require.NoError(t, err)
	assert.Equal(t, "1", d.Snapshot.LocalStorage["a"])

	// encrypted without compression underneath still decodes
	c, err = Encode(sample(), EncodeOptions{Compress: true, Encrypt: true, Password: password, Compressor: failingCompressor{}})
	require.NoError(t, err)
	assert.Equal(t, FormatEncrypted, c.Format)
	d, err = Decode(c.Data, DecodeOptions{Hint: FormatEncrypted, Password: password})
	require.NoError(t, err)
	assert.Equal(t, "2", d.Snapshot.LocalStorage["b"])
}

func TestEncode_EncryptWithoutPassword(t *testing.T) {
	_, err := Encode(sample(), EncodeOptions{Encrypt: true})
	assert.True(t, errors.Is(err, ErrPasswordRequired))
}

func TestDecode_WrongPassword(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{Compress: true, Encrypt: true, Password: password})
	require.NoError(t, err)

	_, err = Decode(c.Data, DecodeOptions{Hint: FormatEncrypted, Password: "wrong password"})
	assert.True(t, errors.Is(err, ErrDecryption), "got %v", err)
}

func TestDecode_Tampered(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{Compress: true, Encrypt: true, Password: password})
	require.NoError(t, err)

	for _, pos := range []int{0, SaltSize, SaltSize + NonceSize, len(c.Data) - 1} {
		tampered := append([]byte(nil), c.Data...)
		tampered[pos] ^= 0x01

		_, err := Decode(tampered, DecodeOptions{Hint: FormatEncrypted, Password: password})
		assert.True(t, errors.Is(err, ErrDecryption), "byte %d: got %v", pos, err)
	}

	_, err = Decode(c.Data[:SaltSize+NonceSize], DecodeOptions{Hint: FormatEncrypted, Password: password})
	assert.True(t, errors.Is(err, ErrDecryption), "truncated payload")
}

func TestDecode_PasswordRequired(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{Encrypt: true, Password: password})
	require.NoError(t, err)

	_, err = Decode(c.Data, DecodeOptions{Hint: FormatEncrypted})
	assert.True(t, errors.Is(err, ErrPasswordRequired))

	_, err = Decode(c.Data, DecodeOptions{Hint: FormatUnknown})
	assert.True(t, errors.Is(err, ErrPasswordRequired))

	_, err = Decode(c.Data, DecodeOptions{Hint: FormatJSON})
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestDecode_GzipHintFallsBackToText(t *testing.T) {
	c, err := Encode(sample(), EncodeOptions{})
	require.NoError(t, err)

	d, err := Decode(c.Data, DecodeOptions{Hint: FormatGzip})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, d.Format)
	assert.Equal(t, "1", d.Snapshot.LocalStorage["a"])
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		hint Format
	}{
		{name: "json array", data: []byte(`[1,2,3]`)},
		{name: "truncated gzip", data: []byte{0x1f, 0x8b, 0x08, 0x00}},
		{name: "gzip of garbage", data: mustGzip(t, []byte("not a snapshot"))},
		{name: "text hinted as json", data: []byte("hello"), hint: FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, DecodeOptions{Hint: tt.hint})
			assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
		})
	}
}

func TestDecode_LegacyArtifact(t *testing.T) {
	text := `{"_meta":{"hostname":"old.example","exportedAt":"2023-06-01T00:00:00.000Z","version":"3.1"},` +
		`"localStorage":{"k":"v"},"sessionStorage":{},"cookies":{},` +
		`"indexedDB":{"db":{"version":1,"stores":{"s":[1,2,3]}}}}`

	zipped := mustGzip(t, []byte(text))
	d, err := Decode(zipped, DecodeOptions{Hint: FormatFromName("storage-old.example-1.gz")})
	require.NoError(t, err)
	assert.Equal(t, "old.example", d.Snapshot.Meta.Host)
	assert.True(t, d.Snapshot.IndexedDB["db"].Stores["s"].Legacy)
	assert.Len(t, d.Snapshot.IndexedDB["db"].Stores["s"].Records, 3)
}

func TestEncrypt_FreshSaltAndNonce(t *testing.T) {
	a, err := Encrypt([]byte("same"), password)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), password)
	require.NoError(t, err)
	assert.NotEqual(t, a[:SaltSize+NonceSize], b[:SaltSize+NonceSize])
}

func TestSizeInfo_Ratio(t *testing.T) {
	assert.InDelta(t, 0.75, SizeInfo{Original: 100, Final: 25}.Ratio(), 1e-9)
	assert.InDelta(t, -0.5, SizeInfo{Original: 100, Final: 150}.Ratio(), 1e-9)
	assert.Zero(t, SizeInfo{}.Ratio())
}

func mustGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	out, err := Gzip{}.Compress(data)
	require.NoError(t, err)
	return out
}
