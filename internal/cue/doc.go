// Package cue defines caption cues and the ordered, append-only store that
// holds them for a transcript session.
//
// It also owns the two leaf transformations every caption source relies on:
// ParseTimestamp, which turns HH:MM:SS.mmm, MM:SS.mmm and SS.mmm text into
// seconds, and Normalize, which strips inline markup and line breaks from cue
// text. Store is safe for concurrent use; readers get restartable snapshots
// while ingestion appends.
package cue
