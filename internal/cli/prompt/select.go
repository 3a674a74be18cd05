package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Sentinel errors for selection.
var (
	ErrNoChoices          = errors.New("nothing to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Choice is one selectable item.
type Choice struct {
	// Label is the single line shown in the list.
	Label string

	// Detail is shown in the fuzzy finder preview window.
	Detail string
}

// Selector handles interactive selection prompts.
type Selector struct {
	reader io.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stdout,
	}
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: r,
		writer: w,
	}
}

// Select prints a numbered list and reads the chosen index.
//
// Returns:
//   - ErrNoChoices if the list is empty
//   - 0 without prompting if only one choice exists
//   - ErrInvalidSelection if the input is not a number in range
//   - ErrSelectionCancelled on EOF
//
// An empty answer picks the first choice.
func (s *Selector) Select(title string, choices []Choice) (int, error) {
	if len(choices) == 0 {
		return 0, ErrNoChoices
	}
	if len(choices) == 1 {
		return 0, nil
	}

	fmt.Fprintf(s.writer, "%s:\n", title)
	for i, c := range choices {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, c.Label)
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	input, err := bufio.NewReader(s.reader).ReadString('\n')
	if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return 0, ErrSelectionCancelled
		}
		return 0, errors.Wrap(err, "reading selection")
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if n < 1 || n > len(choices) {
		return 0, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", n, len(choices))
	}
	return n - 1, nil
}

// Fuzzy opens a full-screen fuzzy finder over the choices. It needs a
// terminal; callers fall back to [Selector.Select] otherwise.
func Fuzzy(choices []Choice) (int, error) {
	if len(choices) == 0 {
		return 0, ErrNoChoices
	}

	idx, err := fuzzyfinder.Find(
		choices,
		func(i int) string { return choices[i].Label },
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return choices[i].Detail
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return 0, ErrSelectionCancelled
		}
		return 0, errors.Wrap(err, "fuzzy selection failed")
	}
	return idx, nil
}
