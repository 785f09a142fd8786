// Package history records conversion runs in SQLite.
//
// Each run stores its target root, outcome, and totals, plus one row per
// source directory with the manifest it produced. The database is a local
// convenience log: callers treat write failures as warnings and never fail a
// conversion because history could not be recorded.
//
// Schema changes bump schemaVersion in schema.go; older databases are rejected
// with ErrSchemaMismatch and must be cleared.
package history
