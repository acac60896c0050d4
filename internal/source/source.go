// Package source provides the caption sources a transcript session pulls
// cues from: in-memory tracks, caption documents on disk or over HTTP, and
// an ordered fallback chain across them.
//
// Every source reports failures as values tagged with ErrSourceFetchFailed or
// ErrNoCaptionsAvailable so callers can tell a retryable outage from media
// that simply has no captions.
package source

import (
	"context"
	"fmt"
	"sync"

	"cuetrack/internal/cue"
)

// CueSource returns the cues currently known for a piece of media, in start
// order. Repeated calls may return more cues as the source fills in.
type CueSource interface {
	Cues(ctx context.Context) ([]cue.Cue, error)
}

// Describer is implemented by sources that can name themselves for logs.
type Describer interface {
	Describe() string
}

// Describe names src for logs, falling back to its Go type.
func Describe(src CueSource) string {
	if d, ok := src.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", src)
}

// DocumentStore persists fetched cues keyed by their origin.
type DocumentStore interface {
	Put(ctx context.Context, origin string, cues []cue.Cue) error
}

// StaticSource serves a fixed cue list.
type StaticSource struct {
	Name string
	List []cue.Cue
}

// Cues returns a copy of the configured list. An empty list reports
// ErrNoCaptionsAvailable.
func (s StaticSource) Cues(context.Context) ([]cue.Cue, error) {
	if len(s.List) == 0 {
		return nil, Wrap(ErrNoCaptionsAvailable, "static", s.Describe(), nil)
	}
	out := make([]cue.Cue, len(s.List))
	copy(out, s.List)
	return out, nil
}

func (s StaticSource) Describe() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}

// Progressive reveals the cues of an inner source a batch at a time, one
// batch per call, the way a player populates a track while it buffers.
type Progressive struct {
	Inner CueSource
	Batch int

	mu       sync.Mutex
	revealed int
}

// Cues reveals the next batch and returns everything revealed so far.
func (p *Progressive) Cues(ctx context.Context) ([]cue.Cue, error) {
	all, err := p.Inner.Cues(ctx)
	if err != nil {
		return nil, err
	}
	batch := p.Batch
	if batch <= 0 {
		batch = 1
	}
	p.mu.Lock()
	p.revealed = min(p.revealed+batch, len(all))
	n := p.revealed
	p.mu.Unlock()
	return all[:n], nil
}

func (p *Progressive) Describe() string {
	return "progressive " + Describe(p.Inner)
}
