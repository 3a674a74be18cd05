package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/webstash/internal/errors"
)

func TestGenDoc_Markdown(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	if err := runGenDocWithWriter(&buf, dir, "markdown"); err != nil {
		t.Fatalf("runGenDocWithWriter() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "webstash_export.md"))
	if err != nil {
		t.Fatalf("export page missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\ntitle: \"webstash export\"") {
		t.Errorf("front matter missing:\n%s", data[:min(len(data), 120)])
	}
	if _, err := os.Stat(filepath.Join(dir, "webstash_archive_list.md")); err != nil {
		t.Errorf("subcommand page missing: %v", err)
	}
}

func TestGenDoc_Man(t *testing.T) {
	dir := t.TempDir()
	if err := runGenDocWithWriter(&bytes.Buffer{}, dir, "man"); err != nil {
		t.Fatalf("runGenDocWithWriter() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "webstash-import.1")); err != nil {
		t.Errorf("man page missing: %v", err)
	}
}

func TestGenDoc_Errors(t *testing.T) {
	if err := runGenDocWithWriter(&bytes.Buffer{}, "", "markdown"); errors.ExitCode(err) != errors.ExitUser {
		t.Errorf("missing dir: got %v", err)
	}
	if err := runGenDocWithWriter(&bytes.Buffer{}, t.TempDir(), "pdf"); errors.ExitCode(err) != errors.ExitUser {
		t.Errorf("bad format: got %v", err)
	}
}

func TestLinkHandler(t *testing.T) {
	if got := linkHandler("webstash_Archive_list.md"); got != "/docs/reference/webstash_archive_list/" {
		t.Errorf("linkHandler() = %q", got)
	}
}
