package source

import (
	"context"
	"strings"
	"sync"

	"cuetrack/internal/cue"
	"cuetrack/internal/language"
)

// Track kinds eligible for a transcript.
const (
	KindCaptions  = "captions"
	KindSubtitles = "subtitles"
)

// Track is a text track exposed by a player. Reader is the pull accessor for
// the cues loaded so far; it may return more on each call.
type Track struct {
	Kind     string
	Label    string
	Language string
	Reader   func() []cue.Cue
}

// Eligible reports whether the track may feed a transcript.
func (t Track) Eligible() bool {
	switch strings.ToLower(strings.TrimSpace(t.Kind)) {
	case KindCaptions, KindSubtitles:
		return true
	default:
		return false
	}
}

// SelectTrack picks the track a transcript should follow. With no language
// preference the first eligible track wins; otherwise the first eligible
// track matching the earliest preferred language, then the first eligible
// track. It reports false when no track is eligible.
func SelectTrack(tracks []Track, languages []string) (Track, bool) {
	first := -1
	for i, t := range tracks {
		if t.Eligible() {
			first = i
			break
		}
	}
	if first < 0 {
		return Track{}, false
	}
	for _, lang := range languages {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		for _, t := range tracks {
			if t.Eligible() && language.Match(t.Language, lang) {
				return t, true
			}
		}
	}
	return tracks[first], true
}

// TrackSource pulls cues from the selected track of a player's track list.
type TrackSource struct {
	Tracks    func() []Track
	Languages []string
}

// Cues selects a track and returns its current cues. No eligible track
// reports ErrNoCaptionsAvailable.
func (s TrackSource) Cues(context.Context) ([]cue.Cue, error) {
	if s.Tracks == nil {
		return nil, Wrap(ErrNoCaptionsAvailable, "select track", "no track list", nil)
	}
	track, ok := SelectTrack(s.Tracks(), s.Languages)
	if !ok {
		return nil, Wrap(ErrNoCaptionsAvailable, "select track", "no captions or subtitles track", nil)
	}
	if track.Reader == nil {
		return nil, nil
	}
	return track.Reader(), nil
}

func (s TrackSource) Describe() string { return "track" }

// Buffer is a growing cue list usable as a Track reader. It is safe for
// concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	cues []cue.Cue
}

// Add appends cues to the buffer.
func (b *Buffer) Add(cues ...cue.Cue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cues = append(b.cues, cues...)
}

// Read returns a copy of the buffered cues.
func (b *Buffer) Read() []cue.Cue {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]cue.Cue, len(b.cues))
	copy(out, b.cues)
	return out
}
