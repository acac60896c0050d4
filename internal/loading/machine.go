package loading

import (
	"errors"
	"sync"
)

// Config tunes stabilization and the attempt budget.
type Config struct {
	// StableObservations is the number of consecutive observations that must
	// report the same count before Partial becomes Stable.
	StableObservations int
	// MaxAttempts is the number of observations allowed to see no cues
	// before Empty becomes Failed.
	MaxAttempts int
}

// DefaultConfig mirrors the repository configuration defaults.
func DefaultConfig() Config {
	return Config{StableObservations: 3, MaxAttempts: 20}
}

func (c Config) validate() error {
	if c.StableObservations < 1 {
		return errors.New("loading: stable observations must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return errors.New("loading: max attempts must be at least 1")
	}
	return nil
}

// Machine applies count observations to a loading State. It is safe for
// concurrent use.
type Machine struct {
	mu       sync.Mutex
	cfg      Config
	state    State
	attempts int
	run      int
	// epoch increments on Reset so observations taken before a reset can be
	// told apart from fresh ones.
	epoch uint64
}

// NewMachine returns a machine in the Empty state.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the number of observations made while Empty.
func (m *Machine) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Epoch identifies the content generation; it changes on every Reset.
func (m *Machine) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Observe applies one observation of the source's cue count and returns the
// resulting state and whether it changed. Counts lower than the current one
// are ignored because caption tracks only grow; use Reset after replacing
// the content. Failed absorbs every observation.
func (m *Machine) Observe(count int) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observeLocked(count)
}

// observeAt is Observe for a count read during epoch. A count read before the
// latest Reset is dropped.
func (m *Machine) observeAt(epoch uint64, count int) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return m.state, false
	}
	return m.observeLocked(count)
}

func (m *Machine) observeLocked(count int) (State, bool) {
	prev := m.state
	if m.state.Terminal() {
		return m.state, false
	}
	switch m.state.Phase {
	case Empty:
		if count > 0 {
			m.grow(count)
			break
		}
		m.attempts++
		if m.attempts > m.cfg.MaxAttempts {
			m.state = State{Phase: Failed}
		}
	case Partial:
		switch {
		case count > m.state.Count:
			m.grow(count)
		case count == m.state.Count:
			m.run++
			if m.run >= m.cfg.StableObservations {
				m.state = State{Phase: Stable, Count: count}
			}
		}
	case Stable:
		if count > m.state.Count {
			m.grow(count)
		}
	}
	return m.state, m.state != prev
}

// grow moves to Partial(count), starting a new stabilization run that counts
// the current observation as its first.
func (m *Machine) grow(count int) {
	m.state = State{Phase: Partial, Count: count}
	m.run = 1
	if m.run >= m.cfg.StableObservations {
		m.state.Phase = Stable
	}
}

// Reset restarts tracking after the content was replaced wholesale: Partial
// with count when count is positive, Empty otherwise. The attempt budget is
// restored.
func (m *Machine) Reset(count int) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.attempts = 0
	m.run = 0
	m.state.Unavailable = false
	if count > 0 {
		m.grow(count)
	} else {
		m.state = State{Phase: Empty}
	}
	return m.state
}

// Fail forces the Failed state, used when the source reports an
// unrecoverable error. It returns whether the state changed.
func (m *Machine) Fail() bool {
	return m.failAt(m.Epoch())
}

func (m *Machine) failAt(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.state.Phase == Failed {
		return false
	}
	m.state = State{Phase: Failed}
	return true
}

// MarkUnavailable records that the source has no captions at all. The state
// becomes terminal without entering Failed. It returns whether the state
// changed; a machine that already saw cues or failed is left alone.
func (m *Machine) MarkUnavailable() bool {
	return m.markUnavailableAt(m.Epoch())
}

func (m *Machine) markUnavailableAt(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.state.Phase != Empty || m.state.Unavailable {
		return false
	}
	m.state = State{Phase: Empty, Unavailable: true}
	return true
}
