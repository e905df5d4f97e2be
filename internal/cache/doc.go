// Package cache persists per-file audit findings between runs.
//
// Entries are keyed by repository-relative file path and validated against a
// SHA-256 content hash, so findings are reused only while the file content is
// unchanged and the entry is younger than the configured maximum age. The
// cache is a JSON document on disk; a corrupt or missing document degrades to
// an empty cache and never fails the audit.
package cache
