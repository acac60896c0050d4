// Package resolver maps a playback time to the active cue.
//
// Resolution is a linear scan in store order. Overlapping cues resolve to the
// earliest one, so a later cue only becomes active once every earlier cue
// covering the time has ended.
//
// An open-ended cue (End = +Inf) is superseded by the first later cue that
// starts after it: its effective end is that cue's start. The stored cue is
// not modified.
package resolver

import (
	"iter"
	"math"
	"slices"

	"cuetrack/internal/cue"
)

// ResolveActive returns the index of the first cue whose effective range
// contains t.
func ResolveActive(cues []cue.Cue, t float64) (int, bool) {
	if math.IsNaN(t) {
		return -1, false
	}
	for i, c := range cues {
		if t < c.Start {
			continue
		}
		if t < EffectiveEnd(cues, i) {
			return i, true
		}
	}
	return -1, false
}

// EffectiveEnd returns the end used for cues[i]: its own End, or for an
// open-ended cue the start of the first later cue that starts after it.
func EffectiveEnd(cues []cue.Cue, i int) float64 {
	c := cues[i]
	if !c.OpenEnded() {
		return c.End
	}
	for _, next := range cues[i+1:] {
		if next.Start > c.Start {
			return next.Start
		}
	}
	return c.End
}

type openCue struct {
	index int
	start float64
}

// ResolveSeq is ResolveActive over an indexed sequence such as Store.All. It
// reads the sequence once without copying it.
func ResolveSeq(cues iter.Seq2[int, cue.Cue], t float64) (int, bool) {
	if math.IsNaN(t) {
		return -1, false
	}
	best := -1
	// Open-ended cues containing t whose superseding cue is not known yet.
	var open []openCue
	consider := func(index int) {
		if best < 0 || index < best {
			best = index
		}
	}
	for i, c := range cues {
		open = slices.DeleteFunc(open, func(o openCue) bool {
			if c.Start <= o.start {
				return false
			}
			if t < c.Start {
				consider(o.index)
			}
			return true
		})
		if best >= 0 && len(open) == 0 {
			return best, true
		}
		if best >= 0 || !c.Contains(t) {
			continue
		}
		if c.OpenEnded() {
			open = append(open, openCue{index: i, start: c.Start})
			continue
		}
		best = i
		if len(open) == 0 {
			return best, true
		}
	}
	for _, o := range open {
		consider(o.index)
	}
	return best, best >= 0
}

// Cursor remembers the last resolved index so callers only react to changes.
// The zero value starts with no active cue. A Cursor is not safe for
// concurrent use.
type Cursor struct {
	index int
	ok    bool
}

// Update resolves t against cues and reports whether the active cue differs
// from the previous call, including transitions to and from none.
func (c *Cursor) Update(cues []cue.Cue, t float64) (int, bool, bool) {
	index, ok := ResolveActive(cues, t)
	return c.set(index, ok)
}

// UpdateSeq is Update over an indexed sequence.
func (c *Cursor) UpdateSeq(cues iter.Seq2[int, cue.Cue], t float64) (int, bool, bool) {
	index, ok := ResolveSeq(cues, t)
	return c.set(index, ok)
}

// Current returns the last resolved index.
func (c *Cursor) Current() (int, bool) {
	if !c.ok {
		return -1, false
	}
	return c.index, true
}

// Reset forgets the last index, for example after the store is replaced.
func (c *Cursor) Reset() {
	c.index, c.ok = 0, false
}

func (c *Cursor) set(index int, ok bool) (int, bool, bool) {
	if !ok {
		index = -1
	}
	changed := ok != c.ok || (ok && index != c.index)
	c.index, c.ok = index, ok
	return index, ok, changed
}
