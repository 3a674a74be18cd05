package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/config"
	"github.com/thoreinstein/webstash/internal/doctor"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
)

var (
	doctorJSON    bool
	doctorAll bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false, "show passed checks too")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "tighten permissions on data files")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose installation issues",
	Long: `Run diagnostic checks on the webstash configuration and data.

Checks that the config file is valid, that archived artifacts match their
manifests, that the profile opens, that data files are private to the
current user and that a browser is available for --url.

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  # Run all checks
  webstash doctor

  # Fix permission problems
  webstash doctor --fix`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDoctorWithWriter(cmd.Context(), cmd.OutOrStdout(), newDoctorRunner())
	},
}

func newDoctorRunner() *doctor.Runner {
	cfg := flags.Config()
	configPath := config.ConfigFileUsed()
	if configPath == "" {
		configPath = paths.ConfigFile()
	}
	return doctor.NewRunner(
		doctor.NewConfigCheck(configPath),
		doctor.NewPermissionCheck(cfg.ArchiveDir, cfg.Profile, configPath),
		doctor.NewArchiveCheck(archive.NewManager(archive.WithDir(cfg.ArchiveDir))),
		doctor.NewProfileCheck(cfg.Profile, cfg.Host),
		doctor.NewBrowserCheck(cfg.Browser.RemoteURL),
	)
}

func runDoctorWithWriter(ctx context.Context, w io.Writer, runner *doctor.Runner) error {
	report := runner.Run(ctx)

	var fixes []doctor.FixResult
	if doctorFix {
		for _, c := range runner.Checks() {
			if f, ok := c.(doctor.Fixer); ok && f.CanFix() {
				fixes = append(fixes, f.Fix()...)
			}
		}
		if len(fixes) > 0 {
			report = runner.Run(ctx)
		}
	}

	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			*doctor.Report
			Fixes []doctor.FixResult `json:"fixes,omitempty"`
		}{report, fixes}); err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
	} else {
		printDoctorReport(w, report, fixes)
	}

	switch {
	case report.HasErrors():
		return errors.NewSystemError(errDoctorErrors, "")
	case report.HasWarnings():
		return errors.NewUserError(errDoctorWarnings, "")
	}
	return nil
}

func printDoctorReport(w io.Writer, report *doctor.Report, fixes []doctor.FixResult) {
	for _, f := range fixes {
		if f.Fixed {
			fmt.Fprintf(w, "%s✓ fixed%s %s: %s\n", colorGreen, colorReset, f.Path, f.Description)
		} else {
			fmt.Fprintf(w, "%s✗ not fixed%s %s: %s\n", colorYellow, colorReset, f.Path, f.Description)
		}
	}
	if len(fixes) > 0 {
		fmt.Fprintln(w)
	}

	for _, r := range report.Results {
		problem := r.Status == doctor.SeverityError || r.Status == doctor.SeverityWarning
		if !doctorAll && !problem && r.Status != doctor.SeverityInfo {
			continue
		}
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(r.Status), r.Category, r.Name, r.Message)
		if r.FixHint != "" && problem {
			fmt.Fprintf(w, "  %shint: %s%s\n", colorGray, r.FixHint, colorReset)
		}
	}

	fmt.Fprintf(w, "\nSummary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}

// errDoctorWarnings maps to exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors maps to exit code 2.
var errDoctorErrors = errors.New("errors found")
