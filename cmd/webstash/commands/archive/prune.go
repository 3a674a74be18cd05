package archive

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/errors"
)

var pruneKeep int

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", -1, "Number of artifacts to retain per host (default from config)")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old artifacts",
	Long: `Remove archived artifacts beyond the retention count.

Without --keep the configured retention applies. --keep 0 removes every
artifact. Use the global --host flag to prune a single host.`,
	Example: `  # Prune using the configured retention
  webstash archive prune

  # Keep only the most recent artifact per host
  webstash archive prune --keep 1

  See Also:
    webstash archive list - List archived artifacts`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		keep := pruneKeep
		if !cmd.Flags().Changed("keep") {
			keep = flags.Config().Retention
		}
		return runPruneWithWriter(cmd.OutOrStdout(), keep)
	},
}

func runPruneWithWriter(w io.Writer, keep int) error {
	if keep < 0 {
		return errors.NewUserError(errors.New("--keep must be non-negative"), "Pass --keep 0 or more")
	}

	mgr := newManager()
	names, err := hosts(mgr)
	if err != nil {
		return errors.NewSystemError(err, "Check the archive directory")
	}

	pruned := 0
	for _, h := range names {
		n, err := mgr.Prune(h, keep)
		if err != nil {
			return errors.Wrapf(err, "pruning artifacts for %s", h)
		}
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "%s✓ %s: removed %d old artifact(s)%s\n", colorGreen, h, n, colorReset)
		pruned += n
	}

	if pruned == 0 {
		fmt.Fprintln(w, "No artifacts to prune")
	} else {
		fmt.Fprintf(w, "\nTotal: removed %d artifact(s)\n", pruned)
	}
	return nil
}
