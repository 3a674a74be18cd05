// Package cmd holds build metadata for the webstash binary, set with
// -ldflags "-X github.com/thoreinstein/webstash/cmd.Version=v1.2.3".
package cmd

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Agent names this build in snapshot metadata, e.g. "webstash/v1.2.3".
func Agent() string {
	return "webstash/" + Version
}
