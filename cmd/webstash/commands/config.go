package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/webstash/cmd/webstash/commands/flags"
	"github.com/thoreinstein/webstash/internal/config"
	"github.com/thoreinstein/webstash/internal/editor"
	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
	"github.com/thoreinstein/webstash/pkg/fileutil"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage webstash configuration",
	Long: `Manage webstash configuration stored in ~/.config/webstash/config.yaml.

Every key can also be set through the environment, e.g. WEBSTASH_RETENTION
or WEBSTASH_BROWSER_REMOTE_URL. Without a subcommand, lists all values.`,
	Example: `  # List all configuration
  webstash config

  # Get a specific value
  webstash config get retention

  # Set a value
  webstash config set backends localStorage,cookies

  See Also: webstash config init`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConfigListWithWriter(cmd.OutOrStdout())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Nested keys use dot notation. List values are printed one per line.`,
	Example: `  webstash config get browser.headless`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigGetWithWriter(cmd.OutOrStdout(), args[0])
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the config file.

List values like backends take comma-separated values.`,
	Example: `  webstash config set retention 20`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSetWithWriter(cmd.OutOrStdout(), args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConfigListWithWriter(cmd.OutOrStdout())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConfigInitWithWriter(cmd.OutOrStdout(), paths.ConfigFile())
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, then nano or vi. If no configuration file
exists, run 'webstash config init' first.`,
	Example: `  # Open config with a specific editor
  EDITOR=nano webstash config edit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.ConfigFileUsed()
		if path == "" {
			path = paths.ConfigFile()
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return errors.NewUserError(errors.Newf("config file not found at %s", path), "Run: webstash config init")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Location: %s\n", path)
		return editor.New().Open(cmd.Context(), path)
	},
}

func runConfigListWithWriter(w io.Writer) error {
	data, err := yaml.Marshal(flags.Config())
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "writing output")
}

func runConfigGetWithWriter(w io.Writer, key string) error {
	if !slices.Contains(config.Keys(), key) {
		return unknownKey(key)
	}

	switch v := viper.Get(key).(type) {
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	default:
		fmt.Fprintln(w, viper.GetString(key))
	}
	return nil
}

func runConfigSetWithWriter(w io.Writer, key, value string) error {
	if !slices.Contains(config.Keys(), key) {
		return unknownKey(key)
	}

	if key == "backends" {
		viper.Set(key, splitList(value))
	} else {
		viper.Set(key, value)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return errors.NewUserError(errors.Wrapf(err, "setting %s", key), "Check the value type")
	}
	if errs := config.Validate(&cfg); len(errs) > 0 {
		return errors.NewConfigError(errors.Join(errs...))
	}

	path := config.ConfigFileUsed()
	if path == "" {
		path = paths.ConfigFile()
	}
	if err := writeConfig(path, &cfg); err != nil {
		return err
	}
	flags.SetConfig(&cfg)

	fmt.Fprintf(w, "Set %s = %s\n", key, value)
	return nil
}

func runConfigInitWithWriter(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.NewUserError(errors.Newf("config file %s already exists", path), "Re-run with --force to overwrite it")
	}
	if err := writeConfig(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s✓%s Wrote %s\n", colorGreen, colorReset, path)
	return nil
}

func writeConfig(path string, cfg *config.Config) error {
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.NewSystemError(err, "Check permissions on the config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, cfg, 0o600); err != nil {
		return errors.NewSystemError(errors.Wrap(err, "writing config file"), "Check permissions on the config directory")
	}
	return nil
}

func unknownKey(key string) error {
	return errors.NewUserError(errors.Newf("unknown config key %q", key), "Known keys: "+strings.Join(config.Keys(), ", "))
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
