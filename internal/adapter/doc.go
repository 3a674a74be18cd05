// Package adapter normalises each storage backend into its part of a
// snapshot and writes it back.
//
// Every adapter follows the same contained-failure contract: Capture,
// Restore and Clear never return an error directly. They report a
// [Result] with the number of items handled and the identifiers of items
// that failed. A backend that cannot be reached at all sets Result.Err and
// contributes nothing; a backend the environment lacks is simply empty.
//
// Skipped identifiers are slash-separated paths: "key" for key/value
// stores and cookies, "database/store/key" for IndexedDB and "cache/url"
// for cache storage.
package adapter
