package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/transfer"
)

var (
	inspectFormat   string
	inspectPassword string
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "text", "output format: text, json, yaml, toml")
	inspectCmd.Flags().StringVar(&inspectPassword, "password", "", "decryption password (prompted when needed)")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show what an artifact contains",
	Long: `Decode an artifact and print its metadata and per-backend item counts
without restoring anything.`,
	Example: `  # Human readable summary
  webstash inspect storage-example.com-1700000000000.gz

  # Machine readable
  webstash inspect backup.enc --password secret --format json

  See Also: webstash import`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspectWithWriter(cmd.OutOrStdout(), args[0])
	},
}

// inspectOutput is the structured form of inspect.
type inspectOutput struct {
	File       string         `json:"file" yaml:"file" toml:"file"`
	Format     string         `json:"format" yaml:"format" toml:"format"`
	Size       int            `json:"size" yaml:"size" toml:"size"`
	Host       string         `json:"host" yaml:"host" toml:"host"`
	Path       string         `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	Version    string         `json:"version" yaml:"version" toml:"version"`
	Agent      string         `json:"agent,omitempty" yaml:"agent,omitempty" toml:"agent,omitempty"`
	ID         string         `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Total      int            `json:"total" yaml:"total" toml:"total"`
	Counts     map[string]int `json:"counts" yaml:"counts" toml:"counts"`
}

func runInspectWithWriter(w io.Writer, path string) error {
	switch inspectFormat {
	case "text", "json", "yaml", "toml":
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", inspectFormat), "Use one of: text, json, yaml, toml")
	}

	data, hint, err := transfer.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.NewUserError(err, "Check the file path")
		}
		return errors.NewSystemError(err, "Check that the file is readable")
	}

	opts := codec.DecodeOptions{Hint: hint, Password: inspectPassword}
	dec, err := codec.Decode(data, opts)
	if errors.Is(err, codec.ErrPasswordRequired) && inspectPassword == "" && interactive() {
		pw, perr := newPasswordReader().Read("Password")
		if perr != nil {
			return errors.NewUserError(perr, "Pass --password")
		}
		opts.Password = pw
		dec, err = codec.Decode(data, opts)
	}
	if err != nil {
		return importError(err)
	}

	out := summarize(path, len(data), dec)
	switch inspectFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(out), "encoding output")
	case "yaml":
		b, err := yaml.Marshal(out)
		if err != nil {
			return errors.Wrap(err, "encoding output")
		}
		_, err = w.Write(b)
		return errors.Wrap(err, "writing output")
	case "toml":
		b, err := toml.Marshal(out)
		if err != nil {
			return errors.Wrap(err, "encoding output")
		}
		_, err = w.Write(b)
		return errors.Wrap(err, "writing output")
	default:
		printInspectText(w, out)
		return nil
	}
}

func summarize(path string, size int, dec *codec.Decoded) inspectOutput {
	m := dec.Snapshot.Meta
	out := inspectOutput{
		File:       path,
		Format:     dec.Format.String(),
		Size:       size,
		Host:       m.Host,
		Path:       m.Path,
		ExportedAt: m.ExportedAt,
		Version:    m.Version,
		Agent:      m.Agent,
		ID:         m.ID,
		Total:      dec.Snapshot.Total(),
		Counts:     map[string]int{},
	}
	for b, n := range dec.Snapshot.Counts() {
		out.Counts[b.String()] = n
	}
	return out
}

func printInspectText(w io.Writer, out inspectOutput) {
	fmt.Fprintf(w, "%s%s%s\n", colorCyan+colorBold, out.File, colorReset)
	fmt.Fprintf(w, "  format:    %s (%s)\n", out.Format, formatBytes(out.Size))
	host := out.Host
	if host == "" {
		host = "(unknown)"
	}
	fmt.Fprintf(w, "  host:      %s%s\n", host, out.Path)
	if !out.ExportedAt.IsZero() {
		fmt.Fprintf(w, "  exported:  %s\n", out.ExportedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if out.Version != "" {
		fmt.Fprintf(w, "  version:   %s\n", out.Version)
	}
	if out.ID != "" {
		fmt.Fprintf(w, "  id:        %s\n", out.ID)
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %sBACKEND%s\t%sITEMS%s\n", colorBold, colorReset, colorBold, colorReset)
	for _, b := range snapshot.AllBackends() {
		fmt.Fprintf(tw, "  %s\t%d\n", b, out.Counts[b.String()])
	}
	fmt.Fprintf(tw, "  %stotal%s\t%d\n", colorBold, colorReset, out.Total)
	tw.Flush()
}
