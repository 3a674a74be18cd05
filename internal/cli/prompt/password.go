package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Sentinel errors for password entry.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoInput          = errors.New("no input")
)

// PasswordReader reads passwords without echo when attached to a terminal.
type PasswordReader struct {
	reader *bufio.Reader
	writer io.Writer
	fd     int
	tty    bool
}

// NewPasswordReader reads from stdin, prompting on stderr.
func NewPasswordReader() *PasswordReader {
	fd := int(os.Stdin.Fd())
	return &PasswordReader{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stderr,
		fd:     fd,
		tty:    term.IsTerminal(fd),
	}
}

// NewPasswordReaderWithIO reads lines from r with echo, for testing and
// piped input.
func NewPasswordReaderWithIO(r io.Reader, w io.Writer) *PasswordReader {
	return &PasswordReader{reader: bufio.NewReader(r), writer: w}
}

// Read prompts with label and returns the entered password.
func (p *PasswordReader) Read(label string) (string, error) {
	fmt.Fprintf(p.writer, "%s: ", label)

	if p.tty {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.writer)
		if err != nil {
			return "", errors.Wrap(err, "reading password")
		}
		return string(b), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", errors.Wrap(err, "reading password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadNew prompts twice and fails with ErrPasswordMismatch when the
// entries differ.
func (p *PasswordReader) ReadNew(label string) (string, error) {
	first, err := p.Read(label)
	if err != nil {
		return "", err
	}
	second, err := p.Read("Repeat " + strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrPasswordMismatch
	}
	return first, nil
}
