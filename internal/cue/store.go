package cue

import (
	"fmt"
	"iter"
	"sync"
)

// Store is an ordered, append-only collection of cues. Cues are expected in
// ascending start order; the store never re-sorts. Its count only grows
// except when Load replaces the whole content.
//
// The zero value is an empty store ready for use.
type Store struct {
	mu   sync.RWMutex
	cues []Cue
	// generation increments on every Load so readers can tell a replacement
	// from growth.
	generation uint64
}

// NewStore returns a store preloaded with cues. See Load for the contract.
func NewStore(cues []Cue) (*Store, error) {
	s := &Store{}
	if err := s.Load(cues); err != nil {
		return nil, err
	}
	return s, nil
}

// Load atomically replaces the store content. Input order is a precondition:
// cues must already be sorted by start. Every cue is validated first and the
// store is left untouched when any is invalid.
func (s *Store) Load(cues []Cue) error {
	for i, c := range cues {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("load cue %d: %w", i, err)
		}
	}
	next := make([]Cue, len(cues))
	copy(next, cues)

	s.mu.Lock()
	s.cues = next
	s.generation++
	s.mu.Unlock()
	return nil
}

// Append adds a cue to the end of the store. A cue whose start precedes the
// last stored cue's start is rejected with ErrOutOfOrder and never
// reordered. Appending to an empty store behaves like Load with one element.
func (s *Store) Append(c Cue) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.cues); n > 0 {
		last := s.cues[n-1]
		if c.Start < last.Start {
			return fmt.Errorf("%w: start %s precedes last start %s",
				ErrOutOfOrder, FormatTimestamp(c.Start), FormatTimestamp(last.Start))
		}
	} else {
		s.generation++
	}
	s.cues = append(s.cues, c)
	return nil
}

// Count returns the number of stored cues.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cues)
}

// Generation returns a counter that changes whenever the content is
// replaced rather than grown.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// At returns the cue at index i.
func (s *Store) At(i int) (Cue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.cues) {
		return Cue{}, false
	}
	return s.cues[i], true
}

// Snapshot returns a copy of the current content.
func (s *Store) Snapshot() []Cue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Cue, len(s.cues))
	copy(out, s.cues)
	return out
}

// All yields index/cue pairs from a snapshot taken when iteration starts.
// Each call reads afresh, so a later iteration sees cues appended since.
func (s *Store) All() iter.Seq2[int, Cue] {
	return func(yield func(int, Cue) bool) {
		s.mu.RLock()
		// Appends never mutate the existing prefix, and Load swaps the slice,
		// so the captured header stays valid after the lock is released.
		view := s.cues[:len(s.cues):len(s.cues)]
		s.mu.RUnlock()
		for i, c := range view {
			if !yield(i, c) {
				return
			}
		}
	}
}
