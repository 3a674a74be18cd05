package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Confirmer asks yes/no questions.
type Confirmer struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConfirmer creates a Confirmer using stdin and stderr, so prompts do
// not mix with data written to stdout.
func NewConfirmer() *Confirmer {
	return NewConfirmerWithIO(os.Stdin, os.Stderr)
}

// NewConfirmerWithIO creates a Confirmer with custom reader and writer for testing.
func NewConfirmerWithIO(r io.Reader, w io.Writer) *Confirmer {
	return &Confirmer{reader: bufio.NewReader(r), writer: w}
}

// Confirm asks question and reports whether the answer was yes. An empty
// answer or EOF returns def.
func (c *Confirmer) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(c.writer, "%s %s: ", question, hint)

	line, err := c.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.Wrap(err, "reading confirmation")
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmOrigin asks whether to apply a snapshot captured on another host.
func (c *Confirmer) ConfirmOrigin(_ context.Context, snapshotHost, currentHost string) (bool, error) {
	fmt.Fprintf(c.writer, "Snapshot from: %s\nCurrent host:  %s\n", snapshotHost, currentHost)
	return c.Confirm("Continue", false)
}
