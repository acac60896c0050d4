package cue

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedTimestamp marks timestamp text that cannot be parsed. Callers
	// skip the offending cue rather than aborting a whole document.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrOutOfOrder marks an append whose start precedes the last stored cue.
	ErrOutOfOrder = errors.New("cue out of order")
	// ErrInvalidCue marks a cue with a negative start or an end before its start.
	ErrInvalidCue = errors.New("invalid cue")
)

// Cue is a single timed caption entry. Start and End are seconds from the
// beginning of the media; the cue is active on [Start, End).
type Cue struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Open returns a cue whose end is not yet known. Streaming sources use it
// until a later cue supersedes the range; resolution then ends it at the
// later cue's start.
func Open(start float64, text string) Cue {
	return Cue{Start: start, End: math.Inf(1), Text: text}
}

// Contains reports whether t falls inside [Start, End).
func (c Cue) Contains(t float64) bool {
	return t >= c.Start && t < c.End
}

// OpenEnded reports whether the cue's end is still unknown.
func (c Cue) OpenEnded() bool {
	return math.IsInf(c.End, 1)
}

// Validate checks the cue's time range.
func (c Cue) Validate() error {
	switch {
	case math.IsNaN(c.Start) || math.IsNaN(c.End):
		return fmt.Errorf("%w: NaN time", ErrInvalidCue)
	case c.Start < 0:
		return fmt.Errorf("%w: start %g is negative", ErrInvalidCue, c.Start)
	case c.End < c.Start:
		return fmt.Errorf("%w: end %g before start %g", ErrInvalidCue, c.End, c.Start)
	}
	return nil
}

func (c Cue) String() string {
	end := "…"
	if !c.OpenEnded() {
		end = FormatTimestamp(c.End)
	}
	return fmt.Sprintf("%s --> %s %q", FormatTimestamp(c.Start), end, c.Text)
}
