// Package archive keeps exported artifacts on disk so they can be listed,
// re-imported and pruned later.
//
// # Layout
//
// Artifacts are grouped by host under the archive root:
//
//	~/.local/share/webstash/artifacts/
//	└── {host}/
//	    ├── storage-{host}-{millis}.gz
//	    └── storage-{host}-{millis}.gz.yaml
//
// Each artifact has a YAML manifest beside it recording when it was saved,
// the snapshot it came from and the SHA256 of its bytes. [Manager.Get]
// refuses to return an artifact whose bytes no longer match.
//
// # Retention
//
// [Manager.Save] prunes the host directory down to the configured
// retention count after every save. [Manager.Prune] does the same on
// demand:
//
//	mgr := archive.NewManager(archive.WithRetention(3))
//	removed, err := mgr.Prune("example.com", 3)
//
// Entries are always returned newest first.
package archive
