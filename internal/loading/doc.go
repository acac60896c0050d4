// Package loading tracks whether a caption source has finished delivering
// cues.
//
// Caption tracks fill in asynchronously, so readiness is inferred from
// repeated observations of the cue count: Empty until the first cue appears,
// Partial while the count grows, Stable once the count has held for a
// configured number of consecutive observations, and Failed when no cue shows
// up within the attempt budget. Machine holds the transitions; Poller drives
// a Machine on a fixed interval and reports every state change.
package loading
