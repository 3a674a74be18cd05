// Package flags provides shared flag and configuration accessors for CLI
// commands. It exists to avoid import cycles between the root command and
// noun subpackages (archive).
package flags

import (
	"github.com/thoreinstein/webstash/internal/config"
)

var (
	// cfg is the configuration loaded by the root command.
	cfg *config.Config

	// hostFlag is the value of the --host flag.
	hostFlag string
)

// Config returns the loaded configuration, or the defaults before loading.
func Config() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// SetConfig stores the configuration loaded by the root command.
func SetConfig(c *config.Config) {
	cfg = c
}

// Host returns the --host value, or "" when the flag was not given.
func Host() string {
	return hostFlag
}

// SetHost sets the --host value.
func SetHost(h string) {
	hostFlag = h
}
