package archive

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/config"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

// setup points the configuration at a temporary archive holding n
// artifacts for example.com.
func setup(t *testing.T, n int) string {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.ArchiveDir = dir
	cfg.Retention = 10
	flags.SetConfig(cfg)
	flags.SetHost("")
	t.Cleanup(func() {
		flags.SetConfig(nil)
		flags.SetHost("")
		listJSON = false
	})

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range n {
		when := base.Add(time.Duration(i) * time.Minute)
		mgr := archive.NewManager(archive.WithDir(dir), archive.WithClock(func() time.Time { return when }))
		meta := snapshot.Meta{Host: "example.com", ExportedAt: when, Version: snapshot.Version}
		if _, err := mgr.Save(meta, "storage", []byte(`{"n":1}`), codec.FormatJSON); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return dir
}

func TestList_JSON(t *testing.T) {
	setup(t, 2)
	listJSON = true

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter() error = %v", err)
	}

	var got []listOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0].Host != "example.com" {
		t.Fatalf("hosts = %+v, want [example.com]", got)
	}
	if len(got[0].Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(got[0].Artifacts))
	}
	if !got[0].Artifacts[0].SavedAt.After(got[0].Artifacts[1].SavedAt) {
		t.Error("artifacts should be listed newest first")
	}
	if got[0].Artifacts[0].Format != "json" {
		t.Errorf("format = %q, want json", got[0].Artifacts[0].Format)
	}
}

func TestList_Empty(t *testing.T) {
	setup(t, 0)

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No artifacts archived") {
		t.Errorf("output = %q, want empty notice", buf.String())
	}
}

func TestList_HostFlag(t *testing.T) {
	setup(t, 1)
	flags.SetHost("other.example")

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "other.example") || !strings.Contains(out, "(no artifacts)") {
		t.Errorf("output = %q, want other.example with no artifacts", out)
	}
}

func TestPrune(t *testing.T) {
	dir := setup(t, 3)

	var buf bytes.Buffer
	if err := runPruneWithWriter(&buf, 1); err != nil {
		t.Fatalf("runPruneWithWriter() error = %v", err)
	}
	if !strings.Contains(buf.String(), "removed 2 old artifact(s)") {
		t.Errorf("output = %q", buf.String())
	}

	entries, err := archive.NewManager(archive.WithDir(dir)).List("example.com")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("remaining = %d, want 1", len(entries))
	}
}

func TestPrune_NothingToDo(t *testing.T) {
	setup(t, 1)

	var buf bytes.Buffer
	if err := runPruneWithWriter(&buf, 5); err != nil {
		t.Fatalf("runPruneWithWriter() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No artifacts to prune") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrune_NegativeKeep(t *testing.T) {
	setup(t, 0)

	if err := runPruneWithWriter(&bytes.Buffer{}, -1); err == nil {
		t.Error("expected error for negative keep")
	}
}
