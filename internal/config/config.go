package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thoreinstein/webstash/internal/errors"
	"github.com/thoreinstein/webstash/internal/paths"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "WEBSTASH"

// Config represents the top-level configuration structure.
type Config struct {
	Version    int      `mapstructure:"version" yaml:"version"`
	Backends   []string `mapstructure:"backends" yaml:"backends"`
	Compress   bool     `mapstructure:"compress" yaml:"compress"`
	Encrypt    bool     `mapstructure:"encrypt" yaml:"encrypt"`
	ArchiveDir string   `mapstructure:"archive_dir" yaml:"archive_dir"`
	Retention  int      `mapstructure:"retention" yaml:"retention"`
	Profile    string   `mapstructure:"profile" yaml:"profile"`
	Host       string   `mapstructure:"host" yaml:"host"`
	Browser    Browser  `mapstructure:"browser" yaml:"browser"`
}

// Browser configures the live page environment.
type Browser struct {
	RemoteURL string `mapstructure:"remote_url" yaml:"remote_url,omitempty"`
	Headless  bool   `mapstructure:"headless" yaml:"headless"`
	Stealth   bool   `mapstructure:"stealth" yaml:"stealth"`
}

// Keys lists every known configuration key.
func Keys() []string {
	return []string{
		"version", "backends", "compress", "encrypt", "archive_dir", "retention",
		"profile", "host", "browser.remote_url", "browser.headless", "browser.stealth",
	}
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	return &Config{
		Version:    1,
		Backends:   []string{"localStorage", "sessionStorage", "cookies", "indexedDB", "cacheStorage", "serviceWorkers"},
		Compress:   true,
		ArchiveDir: paths.ArchiveDir(),
		Retention:  10,
		Profile:    paths.ProfilePath(),
		Host:       "localhost",
		Browser:    Browser{Headless: true},
	}
}

// Init resets Viper and installs search paths, env binding and defaults.
// Call this once at startup before Load.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	d := Default()
	viper.SetDefault("version", d.Version)
	viper.SetDefault("backends", d.Backends)
	viper.SetDefault("compress", d.Compress)
	viper.SetDefault("encrypt", d.Encrypt)
	viper.SetDefault("archive_dir", d.ArchiveDir)
	viper.SetDefault("retention", d.Retention)
	viper.SetDefault("profile", d.Profile)
	viper.SetDefault("host", d.Host)
	viper.SetDefault("browser.remote_url", d.Browser.RemoteURL)
	viper.SetDefault("browser.headless", d.Browser.Headless)
	viper.SetDefault("browser.stealth", d.Browser.Stealth)
}

// LoadDotEnv loads KEY=value pairs from file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(file string) error {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return errors.Wrapf(err, "loading %s", file)
	}
	return nil
}

// Load reads the configuration file and validates the result.
// If path is empty the default search locations are used and a missing
// file yields the defaults; an explicit path must exist.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(paths.ExpandHome(path))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// defaults only
		case path != "" && isNotExist(err):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	cfg.ArchiveDir = paths.ExpandHome(cfg.ArchiveDir)
	cfg.Profile = paths.ExpandHome(cfg.Profile)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Wrap(errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig), "validating config")
	}

	return &cfg, nil
}

// ConfigFileUsed returns the file the last Load read, or "".
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, os.ErrNotExist)
}
