// Package main hosts the cuetrack CLI.
//
// The command tree loads caption documents from disk or HTTP, prints and
// searches their cues, follows them against a simulated playback clock in a
// terminal transcript panel, and serves a live session over HTTP. Commands
// share lazily loaded configuration, logging and the cue cache through
// commandContext so each subcommand only wires its own flow.
package main
