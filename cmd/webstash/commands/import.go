package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/archive"
	"github.com/thoreinstein/webstash/internal/cli/prompt"
	"github.com/thoreinstein/webstash/internal/codec"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/stash"
	"github.com/thoreinstein/webstash/internal/transfer"
	"github.com/thoreinstein/webstash/pkg/fileutil"
)

// errPasteOrigin is returned when pasted input, which owns stdin, needs an
// origin confirmation.
var errPasteOrigin = errors.New("cannot confirm the origin: stdin holds the pasted artifact")

var (
	importPaste    bool
	importPick     bool
	importBackends []string
	importPassword string
	importYes      bool
)

func init() {
	f := importCmd.Flags()
	f.BoolVar(&importPaste, "paste", false, "read base64 or JSON text from stdin")
	f.BoolVar(&importPick, "pick", false, "choose an archived artifact interactively")
	f.StringSliceVarP(&importBackends, "backend", "b", nil, "backends to restore (default from config)")
	f.StringVar(&importPassword, "password", "", "decryption password (prompted when needed)")
	f.BoolVarP(&importYes, "yes", "y", false, "import even when the snapshot comes from another host")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Restore storage from an artifact",
	Long: `Decode an artifact and restore its snapshot into the current environment.

The artifact comes from a file, from text on stdin (--paste), or from the
archive (--pick). The format is detected from the file suffix and the
bytes. Encrypted artifacts prompt for the password unless --password is
given.

When the snapshot was taken on a different host, webstash asks before
writing anything. --yes skips the question.

Items that cannot be written (quota, key conflicts) are skipped and
reported; they do not fail the import.`,
	Example: `  # Import a file
  webstash import storage-example.com-1700000000000.gz

  # Import pasted text
  pbpaste | webstash import --paste

  # Choose from the archive
  webstash import --pick

  See Also: webstash export, webstash inspect`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	return runImportWithIO(cmd.Context(), args, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runImportWithIO(ctx context.Context, args []string, in io.Reader, w io.Writer) error {
	modes := 0
	for _, set := range []bool{len(args) == 1, importPaste, importPick} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return errors.NewUserError(errors.New("exactly one input is required"),
			"Pass a file, --paste or --pick")
	}

	backends, err := resolveBackends(importBackends)
	if err != nil {
		return err
	}

	data, hint, source, err := readImportInput(args, in)
	if err != nil {
		return err
	}

	t, err := openTarget(ctx)
	if err != nil {
		return err
	}
	defer t.Close()

	var confirmer stash.Confirmer = prompt.NewConfirmerWithIO(in, w)
	switch {
	case importYes:
		confirmer = stash.AlwaysConfirm
	case importPaste:
		confirmer = stash.ConfirmFunc(func(context.Context, string, string) (bool, error) {
			return false, errPasteOrigin
		})
	}

	opts := stash.ImportOptions{
		Hint:      hint,
		Password:  importPassword,
		Backends:  backends,
		Confirmer: confirmer,
	}

	out, err := stash.Import(ctx, t, data, opts)
	if errors.Is(err, codec.ErrPasswordRequired) && importPassword == "" && interactive() {
		pw, perr := newPasswordReader().Read("Password")
		if perr != nil {
			return errors.NewUserError(perr, "Pass --password")
		}
		opts.Password = pw
		out, err = stash.Import(ctx, t, data, opts)
	}
	if errors.Is(err, errPasteOrigin) {
		return errors.NewUserError(err, "Re-run with --yes to import pasted text from "+out.Meta.Host)
	}
	if err != nil {
		return importError(err)
	}

	if err := t.Save(ctx); err != nil {
		return errors.NewSystemError(err, "Check that the profile is writable")
	}

	fmt.Fprintf(w, "%s✓ Imported %d item(s) from %s into %s%s\n", colorGreen, out.Total, source, t.Describe, colorReset)
	if out.Meta.Host != "" {
		fmt.Fprintf(w, "  snapshot of %s taken %s\n", out.Meta.Host, out.Meta.ExportedAt.Local().Format("2006-01-02 15:04:05"))
	}
	for _, r := range out.Breakdown {
		line := fmt.Sprintf("  %-16s %d", r.Backend, r.Written)
		switch {
		case r.Err != nil:
			line += fmt.Sprintf(" %s(failed: %v)%s", colorYellow, r.Err, colorReset)
		case len(r.Skipped) > 0:
			line += fmt.Sprintf(" %s(skipped: %s)%s", colorGray, strings.Join(r.Skipped, ", "), colorReset)
		}
		fmt.Fprintln(w, line)
	}
	if n := skippedCount(out.Breakdown); n > 0 {
		fmt.Fprintf(w, "%s%d item(s) were not restored%s\n", colorYellow, n, colorReset)
	}
	return nil
}

// readImportInput returns the artifact bytes, a format hint and a label
// for the source.
func readImportInput(args []string, in io.Reader) ([]byte, codec.Format, string, error) {
	switch {
	case importPaste:
		text, err := fileutil.ReadAllWithLimit(in, fileutil.MaxArtifactSize)
		if err != nil {
			return nil, codec.FormatUnknown, "", errors.NewUserError(err, "Paste a smaller artifact")
		}
		data, hint, err := transfer.DecodeText(string(text))
		if err != nil {
			return nil, codec.FormatUnknown, "", importError(err)
		}
		return data, hint, "pasted text", nil

	case importPick:
		return pickArchived()

	default:
		data, hint, err := transfer.ReadFile(args[0])
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, codec.FormatUnknown, "", errors.NewUserError(err, "Check the file path")
			}
			return nil, codec.FormatUnknown, "", errors.NewSystemError(err, "Check that the file is readable")
		}
		return data, hint, args[0], nil
	}
}

// pickArchived lets the user choose an archived artifact.
func pickArchived() ([]byte, codec.Format, string, error) {
	cfg := flags.Config()
	mgr := archive.NewManager(archive.WithDir(cfg.ArchiveDir))

	hosts := []string{flags.Host()}
	if hosts[0] == "" {
		var err error
		if hosts, err = mgr.Hosts(); err != nil {
			return nil, codec.FormatUnknown, "", errors.NewSystemError(err, "Check the archive directory")
		}
	}

	var entries []archive.Entry
	for _, h := range hosts {
		list, err := mgr.List(h)
		if err != nil && !errors.Is(err, archive.ErrNoArtifactsFound) {
			return nil, codec.FormatUnknown, "", errors.NewSystemError(err, "Check the archive directory")
		}
		entries = append(entries, list...)
	}
	if len(entries) == 0 {
		return nil, codec.FormatUnknown, "", errors.NewUserError(archive.ErrNoArtifactsFound, "Run: webstash export")
	}

	choices := make([]prompt.Choice, len(entries))
	for i, e := range entries {
		choices[i] = prompt.Choice{
			Label:  e.Host + "  " + e.Name,
			Detail: fmt.Sprintf("host: %s\nsaved: %s\nformat: %s\nsize: %s\nbackends: %s",
				e.Host, e.SavedAt.Local().Format("2006-01-02 15:04:05"), e.Format,
				formatBytes(e.Size), strings.Join(e.Backends, ", ")),
		}
	}

	var (
		idx int
		err error
	)
	if interactive() {
		idx, err = prompt.Fuzzy(choices)
	} else {
		idx, err = prompt.NewSelector().Select("Select an artifact", choices)
	}
	if err != nil {
		return nil, codec.FormatUnknown, "", errors.NewUserError(err, "Pass a file instead of --pick")
	}

	e := entries[idx]
	_, data, err := mgr.Get(e.Host, e.Name)
	if err != nil {
		return nil, codec.FormatUnknown, "", errors.NewSystemError(err, "Prune the archive and export again")
	}
	return data, codec.FormatFromName(e.Name), e.Name, nil
}
