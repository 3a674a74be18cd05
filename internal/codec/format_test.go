package codec

import (
	"bytes"
	"testing"
)

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"storage-example.com-1700000000000.json", FormatJSON},
		{"storage-example.com-1700000000000.gz", FormatGzip},
		{"storage-example.com-1700000000000.ENC", FormatEncrypted},
		{"/tmp/dir.gz/backup", FormatUnknown},
		{"notes.txt", FormatUnknown},
	}
	for _, tt := range tests {
		if got := FormatFromName(tt.name); got != tt.want {
			t.Errorf("FormatFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormat_Suffix(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatGzip, FormatEncrypted} {
		if FormatFromName("x"+f.Suffix()) != f {
			t.Errorf("suffix %q does not map back to %v", f.Suffix(), f)
		}
	}
	if FormatUnknown.Suffix() != "" {
		t.Errorf("unknown suffix = %q", FormatUnknown.Suffix())
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{name: "json", data: []byte(` {"meta":{}} `), want: FormatJSON},
		{name: "gzip", data: []byte{0x1f, 0x8b, 0x08}, want: FormatGzip},
		{name: "ciphertext", data: bytes.Repeat([]byte{0xAB}, SaltSize+NonceSize+TagSize), want: FormatEncrypted},
		{name: "short garbage", data: []byte{0xAB, 0xCD}, want: FormatUnknown},
		{name: "empty", data: nil, want: FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.data); got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("abc"); err == nil {
		t.Error("three characters should be rejected")
	}
	if err := ValidatePassword("abcd"); err != nil {
		t.Errorf("four characters should pass: %v", err)
	}
	if err := ValidatePassword("ğüşı"); err != nil {
		t.Errorf("length counts characters, not bytes: %v", err)
	}
}
