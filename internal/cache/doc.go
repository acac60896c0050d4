// Package cache persists parsed caption documents in SQLite so a transcript
// can fall back to the last good copy when a caption fetch fails.
//
// Documents are keyed by their source URL. A Put replaces the whole
// document. CacheSource exposes a cached document as a caption source.
package cache
