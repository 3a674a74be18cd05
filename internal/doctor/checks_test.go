package doctor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/storage/profile"
)

func TestPermissionCheck(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}

	t.Run("private paths pass", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Chmod(dir, 0o700); err != nil {
			t.Fatal(err)
		}
		cfg := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(cfg, []byte("version: 1\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		c := NewPermissionCheck(dir, filepath.Join(dir, "missing.db"), cfg)
		result := c.Run(context.Background())
		if result.Status != SeverityPass {
			t.Errorf("Status = %v, want pass: %s", result.Status, result.Message)
		}
		if c.CanFix() {
			t.Error("nothing should be fixable")
		}
	})

	t.Run("shared paths warn and fix", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Chmod(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		artifact := filepath.Join(dir, "storage-example.com-1.json")
		if err := os.WriteFile(artifact, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}

		c := NewPermissionCheck(dir, ":memory:", "")
		result := c.Run(context.Background())
		if result.Status != SeverityWarning {
			t.Fatalf("Status = %v, want warning", result.Status)
		}
		if !result.Fixable || c.CountFixable() != 2 {
			t.Fatalf("fixable = %v/%d, want true/2", result.Fixable, c.CountFixable())
		}

		for _, r := range c.Fix() {
			if !r.Fixed {
				t.Errorf("fix %s failed: %v", r.Path, r.Error)
			}
		}
		if again := c.Run(context.Background()); again.Status != SeverityPass {
			t.Errorf("after fix Status = %v, want pass", again.Status)
		}
	})
}

func TestCheckMode(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		mode    os.FileMode
		wantBad bool
	}{
		{"owner only", 0o600, false},
		{"group readable", 0o640, true},
		{"world writable", 0o666, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, nil, tt.mode); err != nil {
				t.Fatal(err)
			}
			if err := os.Chmod(path, tt.mode); err != nil {
				t.Fatal(err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if _, bad := checkMode(path, info); bad != tt.wantBad {
				t.Errorf("checkMode(%04o) = %v, want %v", tt.mode, bad, tt.wantBad)
			}
		})
	}
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
		want Severity
	}{
		{"missing", filepath.Join(dir, "none.yaml"), SeverityInfo},
		{"valid", write("ok.yaml", "version: 1\nretention: 3\n"), SeverityPass},
		{"bad yaml", write("bad.yaml", "version: [\n"), SeverityError},
		{"invalid values", write("invalid.yaml", "version: 1\nretention: 0\nbackends: [flash]\n"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewConfigCheck(tt.path).Run(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v: %s", result.Status, tt.want, result.Message)
			}
		})
	}
}

func TestArchiveCheck(t *testing.T) {
	dir := t.TempDir()
	mgr := archive.NewManager(archive.WithDir(dir))

	if got := NewArchiveCheck(mgr).Run(context.Background()); got.Status != SeverityInfo {
		t.Errorf("empty archive Status = %v, want info", got.Status)
	}

	meta := snapshot.Meta{Host: "example.com", ExportedAt: time.Now().UTC()}
	entry, err := mgr.Save(meta, "storage", []byte(`{"_meta":{}}`), codec.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := NewArchiveCheck(mgr).Run(context.Background()); got.Status != SeverityPass {
		t.Errorf("Status = %v, want pass: %s", got.Status, got.Message)
	}

	if err := os.WriteFile(entry.Path, []byte("tampered"), 0o600); err != nil {
		t.Fatal(err)
	}
	got := NewArchiveCheck(mgr).Run(context.Background())
	if got.Status != SeverityError {
		t.Errorf("tampered Status = %v, want error", got.Status)
	}
}

func TestProfileCheck(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.db")

	if got := NewProfileCheck(path, "localhost").Run(ctx); got.Status != SeverityInfo {
		t.Errorf("missing profile Status = %v, want info", got.Status)
	}

	p, err := profile.Open(ctx, path, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	got := NewProfileCheck(path, "localhost").Run(ctx)
	if got.Status != SeverityPass {
		t.Fatalf("Status = %v, want pass: %s", got.Status, got.Message)
	}

	if err := os.WriteFile(path, []byte("not a database, just text padding out the header"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := NewProfileCheck(path, "localhost").Run(ctx); got.Status != SeverityError {
		t.Errorf("corrupt profile Status = %v, want error", got.Status)
	}
}

func TestBrowserCheck(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		found  bool
		want   Severity
	}{
		{"remote", "ws://127.0.0.1:9222", false, SeverityInfo},
		{"local", "", true, SeverityPass},
		{"none", "", false, SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBrowserCheck(tt.remote)
			c.lookPath = func() (string, bool) { return "/usr/bin/chromium", tt.found }
			if got := c.Run(context.Background()); got.Status != tt.want {
				t.Errorf("Status = %v, want %v", got.Status, tt.want)
			}
		})
	}
}
