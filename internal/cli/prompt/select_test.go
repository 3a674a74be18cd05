package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thoreinstein/webstash/internal/errors"
)

var artifacts = []Choice{
	{Label: "storage-example.com-1700000000000.gz"},
	{Label: "storage-example.com-1700000100000.enc"},
	{Label: "cookies-example.com-1700000200000.json"},
}

func TestSelect_EmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	if _, err := s.Select("Artifacts", nil); !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}
}

func TestSelect_SingleItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	idx, err := s.Select("Artifacts", artifacts[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 0 {
		t.Errorf("idx = %d, want 0", idx)
	}
	if buf.Len() > 0 {
		t.Errorf("expected no output for single item, got: %s", buf.String())
	}
}

func TestSelect_ValidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "explicit first", input: "1\n", want: 0},
		{name: "last", input: "3\n", want: 2},
		{name: "default on empty", input: "\n", want: 0},
		{name: "whitespace", input: "  2  \n", want: 1},
		{name: "no trailing newline", input: "2", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			got, err := s.Select("Artifacts", artifacts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
			if !strings.Contains(buf.String(), "[3] cookies-example.com-1700000200000.json") {
				t.Errorf("expected numbered list, got: %s", buf.String())
			}
		})
	}
}

func TestSelect_InvalidSelection(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"0\n", "4\n", "abc\n", "-1\n"} {
		var buf bytes.Buffer
		s := NewSelectorWithIO(strings.NewReader(input), &buf)

		if _, err := s.Select("Artifacts", artifacts); !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("input %q: expected ErrInvalidSelection, got %v", input, err)
		}
	}
}

func TestSelect_EOF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	if _, err := s.Select("Artifacts", artifacts); !errors.Is(err, ErrSelectionCancelled) {
		t.Errorf("expected ErrSelectionCancelled, got %v", err)
	}
}

func TestFuzzy_EmptyList(t *testing.T) {
	t.Parallel()

	if _, err := Fuzzy(nil); !errors.Is(err, ErrNoChoices) {
		t.Errorf("expected ErrNoChoices, got %v", err)
	}
}
