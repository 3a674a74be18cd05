package commands

import (
	"fmt"
	"os"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/adapter"
	"github.com/thoreinstein/webstash/internal/cli/prompt"
	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/stash"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// resolveBackends parses --backend values, falling back to the configured
// list.
func resolveBackends(names []string) ([]snapshot.Backend, error) {
	if len(names) == 0 {
		names = flags.Config().Backends
	}
	backends, err := snapshot.ParseBackends(names)
	if err != nil {
		return nil, errors.NewUserError(err, "Valid backends: localStorage, sessionStorage, cookies, indexedDB, cacheStorage, serviceWorkers")
	}
	return backends, nil
}

// newPasswordReader is replaced in tests.
var newPasswordReader = prompt.NewPasswordReader

// interactive reports whether prompts can be shown.
var interactive = func() bool {
	return logging.IsTTY(os.Stdin)
}

// passwordForEncrypt returns the --password value or prompts twice for a
// new one.
func passwordForEncrypt(flag string) (string, error) {
	pw := flag
	if pw == "" {
		if !interactive() {
			return "", errors.NewUserError(codec.ErrPasswordRequired, "Pass --password when not running in a terminal")
		}
		var err error
		if pw, err = newPasswordReader().ReadNew("Password"); err != nil {
			return "", errors.NewUserError(err, "Enter the same password twice")
		}
	}
	if err := codec.ValidatePassword(pw); err != nil {
		return "", errors.NewUserError(err, fmt.Sprintf("Use at least %d characters", codec.MinPasswordLength))
	}
	return pw, nil
}

// importError maps a decode or import failure to an exit error with a
// suggestion.
func importError(err error) error {
	switch {
	case errors.Is(err, stash.ErrCancelled):
		return errors.NewUserError(err, "Re-run with --yes to import into a different host")
	case errors.Is(err, codec.ErrDecryption):
		return errors.NewUserError(err, "Re-run with the correct --password")
	case errors.Is(err, codec.ErrPasswordRequired):
		return errors.NewUserError(err, "Pass --password or run in a terminal to be prompted")
	case errors.Is(err, codec.ErrFormat):
		return errors.NewUserError(err, "Check that the input is a webstash export")
	default:
		return errors.NewSystemError(err, "Run with -vv for details")
	}
}

// formatBytes renders n with a binary unit.
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// sizeLine renders the stages of an encode.
func sizeLine(s codec.SizeInfo) string {
	line := "original " + formatBytes(s.Original)
	if s.Compressed > 0 {
		line += ", compressed " + formatBytes(s.Compressed)
	}
	if s.Encrypted > 0 {
		line += ", encrypted " + formatBytes(s.Encrypted)
	}
	return fmt.Sprintf("%s (%.1f%% reduction)", line, s.Ratio()*100)
}

// skippedCount sums Skipped over results.
func skippedCount(results []adapter.Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Skipped)
	}
	return n
}
