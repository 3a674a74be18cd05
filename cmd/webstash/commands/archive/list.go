package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/errors"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived artifacts",
	Long: `List archived artifacts grouped by host, most recent first.

Use the global --host flag to limit the listing to one host.`,
	Example: `  # List all artifacts
  webstash archive list

  # Output as JSON
  webstash archive list --json

  See Also:
    webstash import --pick - Restore an archived artifact`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runListWithWriter(cmd.OutOrStdout())
	},
}

// listOutput represents the JSON output for archive list.
type listOutput struct {
	Host      string        `json:"host"`
	Artifacts []entryOutput `json:"artifacts"`
}

// entryOutput represents a single artifact in JSON output.
type entryOutput struct {
	Name       string    `json:"name"`
	SavedAt    time.Time `json:"saved_at"`
	ExportedAt time.Time `json:"exported_at"`
	Format     string    `json:"format"`
	Size       int       `json:"size"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Backends   []string  `json:"backends,omitempty"`
}

func runListWithWriter(w io.Writer) error {
	mgr := newManager()
	names, err := hosts(mgr)
	if err != nil {
		return errors.NewSystemError(err, "Check the archive directory")
	}

	grouped := make([]listOutput, 0, len(names))
	for _, h := range names {
		entries, err := mgr.List(h)
		if err != nil && !errors.Is(err, archive.ErrNoArtifactsFound) {
			return errors.Wrapf(err, "listing artifacts for %s", h)
		}
		out := listOutput{Host: h, Artifacts: make([]entryOutput, len(entries))}
		for i, e := range entries {
			out.Artifacts[i] = entryOutput{
				Name:       e.Name,
				SavedAt:    e.SavedAt,
				ExportedAt: e.ExportedAt,
				Format:     e.Format,
				Size:       e.Size,
				SnapshotID: e.SnapshotID,
				Backends:   e.Backends,
			}
		}
		grouped = append(grouped, out)
	}

	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(grouped), "encoding output")
	}
	return outputListTabular(w, grouped)
}

func outputListTabular(w io.Writer, grouped []listOutput) error {
	found := false
	for i, g := range grouped {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%sHost: %s%s\n", colorCyan+colorBold, g.Host, colorReset)

		if len(g.Artifacts) == 0 {
			fmt.Fprintf(w, "  %s(no artifacts)%s\n", colorGray, colorReset)
			continue
		}
		found = true

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  %sNAME%s\t%sSAVED%s\t%sFORMAT%s\t%sSIZE%s\t%sBACKENDS%s\n",
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset,
			colorBold, colorReset)
		for _, e := range g.Artifacts {
			backends := "all"
			if len(e.Backends) > 0 {
				backends = strings.Join(e.Backends, ",")
			}
			fmt.Fprintf(tw, "  %s%s%s\t%s\t%s\t%d\t%s\n",
				colorGreen, e.Name, colorReset,
				e.SavedAt.Local().Format("2006-01-02 15:04:05"),
				e.Format, e.Size, backends)
		}
		tw.Flush()
	}

	if !found {
		fmt.Fprintln(w, "No artifacts archived")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: webstash export")
	}
	return nil
}
