package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd"
	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/adapter"
	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/snapshot"
	"github.com/thoreinstein/webstash/internal/stash"
	"github.com/thoreinstein/webstash/internal/transfer"
)

var (
	exportBackends []string
	exportCompress bool
	exportEncrypt  bool
	exportPassword string
	exportOutput   string
	exportText     bool
)

func init() {
	f := exportCmd.Flags()
	f.StringSliceVarP(&exportBackends, "backend", "b", nil, "backends to export (default from config)")
	f.BoolVar(&exportCompress, "compress", true, "gzip the snapshot")
	f.BoolVar(&exportEncrypt, "encrypt", false, "encrypt the snapshot with a password")
	f.StringVar(&exportPassword, "password", "", "encryption password (prompted when omitted)")
	f.StringVarP(&exportOutput, "output", "o", "", "write to a file or directory, - for stdout (default: archive)")
	f.BoolVar(&exportText, "text", false, "print the artifact as base64 text")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Capture storage into an artifact",
	Long: `Capture the storage of the current environment into a snapshot and
encode it as an artifact.

Without --output the artifact is saved in the archive, where 'webstash
import --pick' and 'webstash archive list' can find it. --text prints the
artifact as base64 for pasting elsewhere.

--compress and --encrypt default to the compress and encrypt config keys.`,
	Example: `  # Export everything into the archive
  webstash export

  # Export only localStorage to the current directory
  webstash export --backend localStorage -o .

  # Encrypted export printed as text
  webstash export --encrypt --text

  See Also: webstash import, webstash inspect`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg := flags.Config()
	if !cmd.Flags().Changed("compress") {
		exportCompress = cfg.Compress
	}
	if !cmd.Flags().Changed("encrypt") {
		exportEncrypt = cfg.Encrypt
	}
	return runExportWithIO(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func runExportWithIO(ctx context.Context, out, info io.Writer) error {
	backends, err := resolveBackends(exportBackends)
	if err != nil {
		return err
	}

	password := ""
	if exportEncrypt {
		if password, err = passwordForEncrypt(exportPassword); err != nil {
			return err
		}
	}

	t, err := openTarget(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	art, err := stash.Export(ctx, t, stash.ExportOptions{
		Backends: backends,
		Agent:    cmd.Agent(),
		Compress: exportCompress,
		Encrypt:  exportEncrypt,
		Password: password,
	})
	if err != nil {
		return errors.NewSystemError(err, "Run with -vv for details")
	}

	prefix := transfer.DefaultPrefix
	if len(backends) == 1 {
		prefix = backends[0].String()
	}

	// data on stdout moves the summary to stderr
	summary := out
	var dest string
	switch {
	case exportText:
		fmt.Fprintln(out, transfer.EncodeText(art.Data))
		summary, dest = info, "stdout (base64)"
	case exportOutput == "-":
		if _, err := out.Write(art.Data); err != nil {
			return errors.Wrap(err, "writing artifact")
		}
		summary, dest = info, "stdout"
	case exportOutput != "":
		if dest, err = writeOutput(exportOutput, prefix, art); err != nil {
			return errors.NewSystemError(err, "Check that the output location is writable")
		}
	default:
		cfg := flags.Config()
		mgr := archive.NewManager(archive.WithDir(cfg.ArchiveDir), archive.WithRetention(cfg.Retention))
		entry, err := mgr.Save(art.Meta, prefix, art.Data, art.Format)
		if err != nil && entry == nil {
			return errors.NewSystemError(err, "Check that the archive directory is writable")
		}
		if err != nil {
			fmt.Fprintf(info, "%s! %v%s\n", colorYellow, err, colorReset)
		}
		dest = entry.Path
	}

	printExportSummary(summary, art, dest)
	return nil
}

// writeOutput writes art to path, or into path when it is a directory.
func writeOutput(path, prefix string, art *stash.Artifact) (string, error) {
	dir, name := filepath.Split(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dir, name = path, transfer.FileName(prefix, art.Meta.Host, art.Meta.ExportedAt, art.Format)
	}
	if dir == "" {
		dir = "."
	}
	return transfer.WriteFile(dir, name, art.Data)
}

func printExportSummary(w io.Writer, art *stash.Artifact, dest string) {
	fmt.Fprintf(w, "%s✓ Exported %d item(s) from %s%s\n", colorGreen, adapter.Total(art.Captured), art.Meta.Host, colorReset)
	for _, r := range art.Captured {
		line := fmt.Sprintf("  %-16s %d", r.Backend, r.Written)
		if r.Err != nil {
			line += fmt.Sprintf(" %s(failed: %v)%s", colorYellow, r.Err, colorReset)
		} else if len(r.Skipped) > 0 {
			line += fmt.Sprintf(" %s(%d skipped)%s", colorGray, len(r.Skipped), colorReset)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  %s\n", sizeLine(art.Size))
	if art.Size.CompressionFallback {
		fmt.Fprintf(w, "  %scompression failed, stored as JSON%s\n", colorYellow, colorReset)
	}
	fmt.Fprintf(w, "  written to %s\n", dest)
}

// backendNames renders backends for messages.
func backendNames(bs []snapshot.Backend) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}
