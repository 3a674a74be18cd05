package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd"
	"github.com/thoreinstein/webstash/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, build date and snapshot format of webstash.`,
	Run: func(c *cobra.Command, _ []string) {
		printVersion(c.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "webstash version %s\n", cmd.Version)
	fmt.Fprintf(w, "  commit:   %s\n", cmd.Commit)
	fmt.Fprintf(w, "  built:    %s\n", cmd.Date)
	fmt.Fprintf(w, "  snapshot: %s\n", snapshot.Version)
}
