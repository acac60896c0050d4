// Package api serves a transcript session over HTTP.
//
// Routes (all JSON):
//
//	GET  /api/health            liveness
//	GET  /api/session           session summary: loading state, counts, active cue
//	GET  /api/cues              cues, paged with ?offset= and ?limit=
//	GET  /api/cues/{index}      one cue
//	GET  /api/active            active cue at ?t= seconds, or at the last tick
//	GET  /api/search            cues matching ?q=, with ?fuzzy=1 and ?limit=
//	POST /api/cues/{index}/seek seek the player to a cue
//
// When a token is configured every route except /api/health requires
// "Authorization: Bearer <token>".
package api
