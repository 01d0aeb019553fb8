// Package cache persists per-file analysis results in a bbolt database.
//
// Keys are SHA-256 hashes of the key material the caller supplies; the review
// engine includes the file path, language, rule-set fingerprint, enabled
// categories and patch text, so any change to rules or input misses. Each
// entry records its creation time and TTL in seconds. Expired entries are
// dropped on read and counted by GetStats.
//
// The database lives at $XDG_CACHE_HOME/patchguard/findings.db (or the
// OS-appropriate equivalent). Only one process may hold it open at a time;
// New gives up after one second if another process has the lock.
package cache
