// Package archive provides CLI commands for managing archived artifacts.
package archive

import (
	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/archive"
)

// Color constants for terminal output.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorCyan  = "\033[36m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// Cmd is the root archive command.
var Cmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived artifacts",
	Long: `Manage artifacts saved by 'webstash export'.

Artifacts are stored under ~/.local/share/webstash/archive/ organized by
host, each next to a YAML manifest holding its metadata and checksum.
Older artifacts beyond the configured retention are removed on export.`,
	Example: `  # List all artifacts
  webstash archive list

  # List artifacts for one host
  webstash archive list --host example.com

  # Keep only the 3 most recent per host
  webstash archive prune --keep 3

  See Also:
    webstash archive list  - List archived artifacts
    webstash archive prune - Remove old artifacts
    webstash import --pick - Restore an archived artifact`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func newManager() *archive.Manager {
	cfg := flags.Config()
	return archive.NewManager(archive.WithDir(cfg.ArchiveDir), archive.WithRetention(cfg.Retention))
}

// hosts returns the --host value, or every archived host.
func hosts(mgr *archive.Manager) ([]string, error) {
	if h := flags.Host(); h != "" {
		return []string{h}, nil
	}
	return mgr.Hosts()
}
