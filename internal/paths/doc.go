// Package paths resolves the directories webstash reads and writes.
//
// The package wraps github.com/adrg/xdg for XDG Base Directory compliance:
//
//	paths.ConfigDir()   // $XDG_CONFIG_HOME/webstash
//	paths.ArchiveDir()  // $XDG_DATA_HOME/webstash/artifacts
//	paths.ProfilePath() // $XDG_DATA_HOME/webstash/profile.db
package paths
