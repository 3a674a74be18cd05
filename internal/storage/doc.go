// Package storage defines the client-side storage surface of one web
// origin as seen by the adapters.
//
// An [Environment] exposes one accessor per backend. Implementations live
// in subpackages: memory (in-process reference), profile (SQLite file) and
// rodpage (a live Chrome tab). A nil accessor means the environment lacks
// that capability, and adapters treat it as an empty backend.
package storage
