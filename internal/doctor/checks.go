package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/config"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/storage/profile"
	"github.com/thoreinstein/webstash/pkg/fileutil"
)

// Target permissions for files and directories that hold storage data.
const (
	privateFilePerm os.FileMode = 0o600
	privateDirPerm  os.FileMode = 0o700
)

// PermissionCheck reports data files readable by other users. Artifacts
// and profiles hold cookies and tokens.
type PermissionCheck struct {
	PermissionFixer

	dirs  []string
	files []string
}

var (
	_ Check = (*PermissionCheck)(nil)
	_ Fixer = (*PermissionCheck)(nil)
)

// NewPermissionCheck checks the archive directory tree, the profile and the
// config file.
func NewPermissionCheck(archiveDir, profilePath, configPath string) *PermissionCheck {
	c := &PermissionCheck{dirs: []string{archiveDir}}
	for _, f := range []string{profilePath, configPath} {
		if f != "" && f != ":memory:" {
			c.files = append(c.files, f)
		}
	}
	return c
}

// Name returns the unique identifier for this check.
func (c *PermissionCheck) Name() string {
	return "permissions"
}

// Category returns the grouping for this check.
func (c *PermissionCheck) Category() string {
	return "filesystem"
}

// pathIssue represents a single permission problem.
type pathIssue struct {
	Path        string
	Type        string // "file" or "directory"
	Problem     string
	Permissions string
	Fixable     bool
}

// Run walks the configured paths. Missing paths are not an issue.
func (c *PermissionCheck) Run(context.Context) *CheckResult {
	var issues []pathIssue
	checked := 0

	for _, dir := range c.dirs {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			checked++
			if issue, ok := checkMode(path, info); ok {
				issues = append(issues, issue)
			}
			return nil
		})
	}

	for _, f := range c.files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		checked++
		if issue, ok := checkMode(f, info); ok {
			issues = append(issues, issue)
		}
	}

	c.setIssues(issues)
	return c.buildResult(issues, checked)
}

func checkMode(path string, info os.FileInfo) (pathIssue, bool) {
	perm := info.Mode().Perm()
	typ, want := "file", privateFilePerm
	if info.IsDir() {
		typ, want = "directory", privateDirPerm
	}
	if perm&0o077 == 0 {
		return pathIssue{}, false
	}

	problem := typ + " is accessible by other users"
	if perm&0o002 != 0 {
		problem = typ + " is world-writable"
	}
	return pathIssue{
		Path:        path,
		Type:        typ,
		Problem:     fmt.Sprintf("%s (mode %s, expected %s)", problem, formatPermissions(perm), formatPermissions(want)),
		Permissions: formatPermissions(perm),
		Fixable:     true,
	}, true
}

func (c *PermissionCheck) buildResult(issues []pathIssue, checked int) *CheckResult {
	if len(issues) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("all %d paths are private", checked),
		}
	}

	details := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		details = append(details, map[string]any{
			"path":        issue.Path,
			"type":        issue.Type,
			"problem":     issue.Problem,
			"permissions": issue.Permissions,
		})
	}

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityWarning,
		Message:  fmt.Sprintf("found %d permission issue(s) across %d paths", len(issues), checked),
		Details: map[string]any{
			"checked_paths": checked,
			"issues":        details,
		},
		Fixable: true,
		FixHint: "run: webstash doctor --fix",
	}
}

// formatPermissions returns the octal permission string (e.g., "0600").
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}

// ConfigCheck validates the config file, when one exists.
type ConfigCheck struct {
	path string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a check for the config file at path.
func NewConfigCheck(path string) *ConfigCheck {
	return &ConfigCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string {
	return "config"
}

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string {
	return "config"
}

// Run parses the file over the defaults and validates the result.
func (c *ConfigCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	data, err := fileutil.ReadFileWithLimit(c.path, 1<<20)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Status = SeverityInfo
			result.Message = "no config file, using defaults"
			result.FixHint = "run: webstash config init"
			return result
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read %s: %v", c.path, err)
		return result
	}

	cfg := config.Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%s is not valid YAML: %v", c.path, err)
		return result
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%s has %d invalid value(s)", c.path, len(errs))
		result.Details = map[string]any{"errors": msgs}
		result.FixHint = "edit the file or run: webstash config set <key> <value>"
		return result
	}

	result.Status = SeverityPass
	result.Message = c.path + " is valid"
	return result
}

// ArchiveCheck verifies every archived artifact against its manifest.
type ArchiveCheck struct {
	mgr *archive.Manager
}

var _ Check = (*ArchiveCheck)(nil)

// NewArchiveCheck creates a check for the archive managed by mgr.
func NewArchiveCheck(mgr *archive.Manager) *ArchiveCheck {
	return &ArchiveCheck{mgr: mgr}
}

// Name returns the unique identifier for this check.
func (c *ArchiveCheck) Name() string {
	return "archive-integrity"
}

// Category returns the grouping for this check.
func (c *ArchiveCheck) Category() string {
	return "archive"
}

// Run loads each artifact, which checks its hash.
func (c *ArchiveCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	hosts, err := c.mgr.Hosts()
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}

	var bad []string
	total := 0
	for _, h := range hosts {
		entries, err := c.mgr.List(h)
		if err != nil {
			continue
		}
		for _, e := range entries {
			total++
			if _, _, err := c.mgr.Get(h, e.Name); err != nil {
				bad = append(bad, filepath.Join(h, e.Name))
			}
		}
	}

	switch {
	case total == 0:
		result.Status = SeverityInfo
		result.Message = "archive is empty"
	case len(bad) > 0:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d of %d artifact(s) failed verification", len(bad), total)
		result.Details = map[string]any{"artifacts": bad}
		result.FixHint = "delete the listed files from " + c.mgr.Dir()
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d artifact(s) across %d host(s) verified", total, len(hosts))
	}
	return result
}

// ProfileCheck opens the offline profile, which checks its schema.
type ProfileCheck struct {
	path string
	host string
}

var _ Check = (*ProfileCheck)(nil)

// NewProfileCheck creates a check for the profile at path.
func NewProfileCheck(path, host string) *ProfileCheck {
	return &ProfileCheck{path: path, host: host}
}

// Name returns the unique identifier for this check.
func (c *ProfileCheck) Name() string {
	return "profile"
}

// Category returns the grouping for this check.
func (c *ProfileCheck) Category() string {
	return "storage"
}

// Run opens and closes the profile. A missing profile is created on first
// use and only reported.
func (c *ProfileCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if _, err := os.Stat(c.path); err != nil {
		result.Status = SeverityInfo
		result.Message = "profile " + c.path + " does not exist yet"
		return result
	}

	p, err := profile.Open(ctx, c.path, "", profile.WithFallbackHost(c.host))
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot open profile: %v", err)
		result.FixHint = "move the file aside; a new profile is created on next use"
		return result
	}
	defer p.Close()

	origin, _ := p.Origin(ctx)
	result.Status = SeverityPass
	result.Message = fmt.Sprintf("profile %s for %s", c.path, origin.Host)
	return result
}

// BrowserCheck reports whether live pages can be opened.
type BrowserCheck struct {
	remoteURL string
	lookPath  func() (string, bool)
}

var _ Check = (*BrowserCheck)(nil)

// NewBrowserCheck creates a check for the browser configuration.
func NewBrowserCheck(remoteURL string) *BrowserCheck {
	return &BrowserCheck{remoteURL: remoteURL, lookPath: launcher.LookPath}
}

// Name returns the unique identifier for this check.
func (c *BrowserCheck) Name() string {
	return "browser"
}

// Category returns the grouping for this check.
func (c *BrowserCheck) Category() string {
	return "storage"
}

// Run looks for a local Chrome unless a remote one is configured.
func (c *BrowserCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	if c.remoteURL != "" {
		result.Status = SeverityInfo
		result.Message = "using remote browser at " + c.remoteURL
		return result
	}

	if path, ok := c.lookPath(); ok {
		result.Status = SeverityPass
		result.Message = "found " + path
		return result
	}

	result.Status = SeverityWarning
	result.Message = "no Chrome or Chromium found; --url will download one on first use"
	result.FixHint = strings.Join([]string{"install Chrome", "or set browser.remote_url"}, " ")
	return result
}
