package api

import (
	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
)

// CueItem is a cue with its store index and display timestamps.
type CueItem struct {
	Index     int     `json:"index"`
	Cue       cue.Cue `json:"cue"`
	StartText string  `json:"startText"`
}

// SessionStatus summarizes a transcript session.
type SessionStatus struct {
	ID          string        `json:"id"`
	State       loading.State `json:"state"`
	Renderable  bool          `json:"renderable"`
	Unavailable bool          `json:"unavailable"`
	CueCount    int           `json:"cueCount"`
	Active      *int          `json:"active"`
	Position    *float64      `json:"position,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
}

// CueListResponse is a page of cues.
type CueListResponse struct {
	Items  []CueItem `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
}

// ActiveResponse reports the active cue for a time.
type ActiveResponse struct {
	Time   *float64 `json:"time,omitempty"`
	Active *CueItem `json:"active"`
}

// SearchResponse lists search hits.
type SearchResponse struct {
	Query   string      `json:"query"`
	Matches []MatchItem `json:"matches"`
}

// MatchItem is one search hit.
type MatchItem struct {
	CueItem
	Score int `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toCueItem(index int, c cue.Cue) CueItem {
	return CueItem{Index: index, Cue: c, StartText: cue.FormatTimestamp(c.Start)}
}
