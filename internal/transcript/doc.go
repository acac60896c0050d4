// Package transcript runs an interactive transcript session: it pulls cues
// from a caption source into a cue store, drives the loading state machine,
// resolves the active cue on every playback tick, and reports changes to a
// renderer.
//
// A Session is instance scoped; any number may run side by side. Renderer
// callbacks are delivered serially, in order, from the session's event
// goroutine, so renderers need no locking of their own. Close cancels every
// timer and waits for the session's goroutines to exit.
package transcript
