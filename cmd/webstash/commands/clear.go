package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/internal/cli/prompt"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/logging"
	"github.com/thoreinstein/webstash/internal/stash"
)

var (
	clearBackends []string
	clearYes      bool
)

func init() {
	clearCmd.Flags().StringSliceVarP(&clearBackends, "backend", "b", nil, "backends to clear (default from config)")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item from the selected backends",
	Long: `Remove every item from the selected backends of the current environment.

Export first if you may need the data again. Items that cannot be removed
are reported and do not stop the others.`,
	Example: `  # Clear cookies only
  webstash clear -b cookies

  # Clear everything without asking
  webstash clear --yes

  See Also: webstash export, webstash view`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runClearWithIO(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runClearWithIO(ctx context.Context, in io.Reader, w io.Writer) error {
	backends, err := resolveBackends(clearBackends)
	if err != nil {
		return err
	}

	t, err := openTarget(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	if !clearYes {
		question := fmt.Sprintf("Clear %s in %s", strings.Join(backendNames(backends), ", "), t.Describe)
		ok, err := prompt.NewConfirmerWithIO(in, w).Confirm(question, false)
		if err != nil {
			return errors.NewUserError(err, "Re-run with --yes")
		}
		if !ok {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	results := stash.Clear(ctx, t, backends)
	if err := t.Save(ctx); err != nil {
		return errors.NewSystemError(err, "Check that the profile is writable")
	}

	logger := logging.FromContext(ctx)
	var failed []error
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.Err)
			fmt.Fprintf(w, "  %s%-15s%s failed: %v\n", colorYellow, r.Backend, colorReset, r.Err)
		case len(r.Skipped) > 0:
			fmt.Fprintf(w, "  %s%-15s%s removed %d, kept %d\n", colorYellow, r.Backend, colorReset, r.Written, len(r.Skipped))
			logger.Debug("items not removed", "backend", r.Backend, "items", r.Skipped)
		default:
			fmt.Fprintf(w, "  %s%-15s%s removed %d\n", colorGreen, r.Backend, colorReset, r.Written)
		}
	}

	if len(failed) == len(results) && len(results) > 0 {
		return errors.NewSystemError(errors.Join(failed...), "Run with -vv for details")
	}
	return nil
}
