package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thoreinstein/webstash/internal/errors"
)

func TestPasswordReader_Read(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPasswordReaderWithIO(strings.NewReader("hunter2\r\n"), &buf)

	got, err := p.Read("Password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Read() = %q, want %q", got, "hunter2")
	}
	if buf.String() != "Password: " {
		t.Errorf("prompt = %q", buf.String())
	}
}

func TestPasswordReader_ReadNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "matching", input: "s3cret\ns3cret\n", want: "s3cret"},
		{name: "mismatch", input: "s3cret\nsecret\n", wantErr: ErrPasswordMismatch},
		{name: "missing repeat", input: "s3cret\n", wantErr: ErrNoInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			p := NewPasswordReaderWithIO(strings.NewReader(tt.input), &buf)

			got, err := p.ReadNew("Password")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ReadNew() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadNew() = %q, want %q", got, tt.want)
			}
		})
	}
}
