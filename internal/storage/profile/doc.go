// Package profile persists one origin's storage in a SQLite file so that
// webstash can export and import without a browser.
//
// A profile is loaded into a memory environment on Open; adapters work on
// that environment and Save writes it back in a single transaction. The
// database uses modernc.org/sqlite (pure Go) with WAL journaling, a 10s
// busy timeout and foreign keys enabled.
//
//	p, err := profile.Open(ctx, paths.ProfilePath(), "example.com")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	// ... stash.Import(ctx, p, data, opts)
//	err = p.Save(ctx)
package profile
