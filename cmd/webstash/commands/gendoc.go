package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/webstash/cmd"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
)

var (
	genDocDir    string
	genDocFormat string
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate reference documentation for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
}

func init() {
	// RunE is assigned here to break the genDocCmd -> rootCmd -> checkConfig
	// initialization cycle.
	genDocCmd.RunE = func(c *cobra.Command, _ []string) error {
		return runGenDocWithWriter(c.OutOrStdout(), genDocDir, genDocFormat)
	}
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "", "output directory for documentation")
	genDocCmd.Flags().StringVar(&genDocFormat, "format", "markdown", "output format: markdown, man")
	rootCmd.AddCommand(genDocCmd)
}

func runGenDocWithWriter(w io.Writer, dir, format string) error {
	if dir == "" {
		return errors.NewUserError(errors.New("output directory is required"), "Pass --dir")
	}
	if err := paths.EnsureDir(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	root := rootCmd
	root.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTreeCustom(root, dir, filePrepender, linkHandler)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{
			Title:   "WEBSTASH",
			Section: "1",
			Source:  "webstash " + cmd.Version,
		}, dir)
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", format), "Use markdown or man")
	}
	if err != nil {
		return errors.Wrapf(err, "generating %s", format)
	}

	fmt.Fprintf(w, "Documentation generated in %s\n", dir)
	return nil
}

// filePrepender adds front matter, turning webstash_archive_list.md into
// the title "webstash archive list".
func filePrepender(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	title := strings.ReplaceAll(base, "_", " ")

	return fmt.Sprintf(`---
title: "%s"
description: "Reference for %s"
---
`, title, title)
}

func linkHandler(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return "/docs/reference/" + strings.ToLower(base) + "/"
}
