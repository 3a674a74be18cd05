// Package rodpage exposes the storage of a live Chrome tab as a
// storage.Environment.
//
// Connect launches a local Chrome through go-rod's launcher, or attaches
// to one at Config.RemoteURL. Browser.Open navigates a new tab, optionally
// hardened with go-rod/stealth, and returns a Page. Every backend
// operation is a small JavaScript function run with page.Eval; results
// come back as JSON strings and are decoded on the Go side. Binary cache
// bodies cross the boundary as base64.
//
// IndexedDB handles are not kept open between calls: each operation opens
// the database by name, runs one transaction and closes it again.
package rodpage
