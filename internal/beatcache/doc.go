// Package beatcache persists beat analysis results in SQLite so repeated
// plan, preview, and export runs over the same track skip decoding.
//
// Entries are keyed by a SHA-256 digest of the audio bytes plus every
// detector parameter that influences the timeline, so changing a threshold
// or editing the audio file never returns a stale result. The database uses
// WAL mode and retries briefly when another beatframe process holds the lock.
package beatcache
