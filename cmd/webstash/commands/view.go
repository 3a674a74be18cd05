package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/stash"
)

var (
	viewBackends []string
	viewJSON     bool
)

func init() {
	viewCmd.Flags().StringSliceVarP(&viewBackends, "backend", "b", nil, "backends to count (default from config)")
	viewCmd.Flags().BoolVar(&viewJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(viewCmd)
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Count the items each backend holds",
	Example: `  # Counts for the profile
  webstash view

  # Counts for a live page
  webstash view --url https://example.com

  See Also: webstash clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runViewWithWriter(cmd.Context(), cmd.OutOrStdout())
	},
}

type viewCount struct {
	Backend string `json:"backend"`
	Items   int    `json:"items"`
	Error   string `json:"error,omitempty"`
}

func runViewWithWriter(ctx context.Context, w io.Writer) error {
	backends, err := resolveBackends(viewBackends)
	if err != nil {
		return err
	}

	t, err := openTarget(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	counts := stash.Summary(ctx, t, backends)

	if viewJSON {
		out := make([]viewCount, 0, len(counts))
		for _, c := range counts {
			vc := viewCount{Backend: c.Backend.String(), Items: c.Items}
			if c.Err != nil {
				vc.Error = c.Err.Error()
			}
			out = append(out, vc)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(out), "encoding output")
	}

	fmt.Fprintf(w, "%s%s%s\n\n", colorCyan+colorBold, t.Describe, colorReset)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sBACKEND%s\t%sITEMS%s\n", colorBold, colorReset, colorBold, colorReset)
	total := 0
	for _, c := range counts {
		if c.Err != nil {
			fmt.Fprintf(tw, "%s\t%s%s%s\n", c.Backend, colorYellow, c.Err, colorReset)
			continue
		}
		total += c.Items
		fmt.Fprintf(tw, "%s\t%d\n", c.Backend, c.Items)
	}
	fmt.Fprintf(tw, "%stotal%s\t%d\n", colorBold, colorReset, total)
	return tw.Flush()
}
