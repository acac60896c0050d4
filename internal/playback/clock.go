// Package playback provides a simulated media clock: a position that
// advances in real time while playing and emits periodic time updates, the
// way a media element fires timeupdate events.
package playback

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// ErrInvalidPosition is returned by Seek for negative or non-finite times.
var ErrInvalidPosition = errors.New("invalid playback position")

// Hooks receive clock events. All are optional and run on the goroutine that
// triggered them: Run for OnTime and OnEnded, the caller for OnPlay.
type Hooks struct {
	OnTime  func(seconds float64)
	OnPlay  func()
	OnEnded func()
}

// Options configures a Clock.
type Options struct {
	// Duration ends playback when reached. Zero or +Inf plays forever.
	Duration float64
	// TickInterval is the time-update period used by Run.
	TickInterval time.Duration
	// Rate scales elapsed wall time. Zero means 1.
	Rate  float64
	Hooks Hooks
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Clock is safe for concurrent use.
type Clock struct {
	mu       sync.Mutex
	opts     Options
	now      func() time.Time
	position float64
	since    time.Time
	playing  bool
	ended    bool
}

// New returns a paused clock at position zero.
func New(opts Options) *Clock {
	if opts.Rate <= 0 {
		opts.Rate = 1
	}
	if opts.Duration <= 0 {
		opts.Duration = math.Inf(1)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 250 * time.Millisecond
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Clock{opts: opts, now: now}
}

// CurrentTime returns the playback position in seconds.
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) positionLocked() float64 {
	pos := c.position
	if c.playing {
		pos += c.now().Sub(c.since).Seconds() * c.opts.Rate
	}
	return math.Min(pos, c.opts.Duration)
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Duration returns the configured media duration.
func (c *Clock) Duration() float64 {
	return c.opts.Duration
}

// Play starts or resumes playback. Playing from the end restarts at zero.
func (c *Clock) Play() error {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return nil
	}
	if c.ended {
		c.position = 0
		c.ended = false
	}
	c.playing = true
	c.since = c.now()
	c.mu.Unlock()

	if c.opts.Hooks.OnPlay != nil {
		c.opts.Hooks.OnPlay()
	}
	return nil
}

// Pause freezes the position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.position = c.positionLocked()
	c.playing = false
}

// Toggle flips between playing and paused.
func (c *Clock) Toggle() error {
	if c.Playing() {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Seek moves the position to seconds, clamped to the duration.
func (c *Clock) Seek(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return ErrInvalidPosition
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = math.Min(seconds, c.opts.Duration)
	c.since = c.now()
	c.ended = false
	return nil
}

// Step moves the position by delta seconds, clamping at zero.
func (c *Clock) Step(delta float64) error {
	return c.Seek(math.Max(c.CurrentTime()+delta, 0))
}

// Run emits time updates every tick interval until ctx is cancelled. Updates
// are only emitted while playing. Reaching the duration pauses the clock and
// fires OnEnded once.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Clock) tick() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	pos := c.positionLocked()
	ended := pos >= c.opts.Duration
	if ended {
		c.position = pos
		c.playing = false
		c.ended = true
	}
	c.mu.Unlock()

	if c.opts.Hooks.OnTime != nil {
		c.opts.Hooks.OnTime(pos)
	}
	if ended && c.opts.Hooks.OnEnded != nil {
		c.opts.Hooks.OnEnded()
	}
}
