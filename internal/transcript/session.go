package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
	"cuetrack/internal/logging"
	"cuetrack/internal/resolver"
	"cuetrack/internal/source"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("transcript session already started")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("transcript session closed")
	// ErrNoPlayer is returned by SeekToCue when no player is attached.
	ErrNoPlayer = errors.New("transcript session has no player")
	// ErrNoSuchCue is returned by SeekToCue for an index outside the store.
	ErrNoSuchCue = errors.New("no such cue")
)

// Session is one transcript bound to one piece of media.
type Session struct {
	id     string
	opts   Options
	logger *slog.Logger

	store   *cue.Store
	machine *loading.Machine
	poller  *loading.Poller
	events  *eventQueue

	mu       sync.Mutex
	cursor   resolver.Cursor
	consumed int
	lastErr  error
	started  bool
	closed   bool
	runCtx   context.Context
	cancel   context.CancelFunc
	timers   map[*time.Timer]struct{}
}

// New validates opts and builds an idle session. Call Start to begin loading.
func New(opts Options) (*Session, error) {
	if opts.Renderer == nil {
		return nil, errors.New("transcript: renderer is required")
	}
	machine, err := loading.NewMachine(opts.Loading)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	id := uuid.NewString()
	logger := logging.WithSessionID(logging.NewComponentLogger(opts.Logger, "transcript"), id)
	if opts.Source != nil {
		logger = logger.With(logging.String(logging.FieldSource, source.Describe(opts.Source)))
	}

	s := &Session{
		id:      id,
		opts:    opts,
		logger:  logger,
		store:   &cue.Store{},
		machine: machine,
		events:  newEventQueue(),
		timers:  make(map[*time.Timer]struct{}),
	}
	poller, err := loading.NewPoller(machine, s.observe, loading.PollerOptions{
		InitialDelay:    opts.InitialDelay,
		Interval:        opts.PollInterval,
		MonitorInterval: opts.MonitorInterval,
		OnChange:        s.stateChanged,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	s.poller = poller
	return s, nil
}

// ID returns the session identifier used to correlate logs.
func (s *Session) ID() string { return s.id }

// Start begins delivering events and polling the source. A session can be
// started once.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(logging.ContextWithSession(ctx, s.id))
	s.runCtx = runCtx
	s.cancel = cancel
	s.started = true

	go s.events.run(s.opts.Renderer)
	state := s.machine.State()
	s.events.push(func(r Renderer) { r.LoadingStateChanged(state) })

	if err := s.poller.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("transcript: start loader: %w", err)
	}
	s.logger.Info("transcript session started",
		logging.Bool("render_partial", s.opts.RenderPartial),
		logging.Int("stable_observations", s.opts.Loading.StableObservations),
		logging.Int("max_attempts", s.opts.Loading.MaxAttempts),
	)
	return nil
}

// Close stops polling, cancels pending timers, delivers queued events and
// waits for every session goroutine to exit. It is safe to call more than
// once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	cancel := s.cancel
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.poller.Stop()
	s.events.close()
	if started {
		<-s.events.done
	}
	s.logger.Debug("transcript session closed")
	return nil
}

// State returns the current loading state.
func (s *Session) State() loading.State { return s.machine.State() }

// Renderable reports whether the transcript should be drawn now under the
// session's partial-render policy.
func (s *Session) Renderable() bool {
	return s.machine.State().Renderable(s.opts.RenderPartial)
}

// Unavailable reports whether the media turned out to have no captions.
func (s *Session) Unavailable() bool { return s.machine.State().Unavailable }

// Err returns the last error reported by the source, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Cues returns a copy of the stored cues.
func (s *Session) Cues() []cue.Cue { return s.store.Snapshot() }

// Cue returns the cue at index.
func (s *Session) Cue(index int) (cue.Cue, bool) { return s.store.At(index) }

// Active returns the active cue index from the last tick.
func (s *Session) Active() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Current()
}

// Tick resolves the active cue for playback time t and notifies the renderer
// when it changed. Ticks with a NaN time resolve to no cue.
func (s *Session) Tick(t float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok, changed := s.cursor.UpdateSeq(s.store.All(), t)
	if changed && !s.closed {
		s.events.push(func(r Renderer) { r.ActiveCueChanged(index, ok) })
	}
	return index, ok
}

// Load replaces the stored cues wholesale and restarts stabilization from
// the new count, even after loading had failed. Cues must be sorted by start.
func (s *Session) Load(cues []cue.Cue) error {
	s.mu.Lock()
	if err := s.store.Load(cues); err != nil {
		s.mu.Unlock()
		return err
	}
	state := s.machine.Reset(len(cues))
	s.consumed = len(cues)
	s.cursor.Reset()
	s.pushLocked(func(r Renderer) {
		r.CuesChanged(len(cues))
		r.LoadingStateChanged(state)
	})
	s.resumeLocked()
	s.mu.Unlock()

	s.logger.Debug("cues loaded", logging.Int("count", len(cues)))
	s.retick()
	return nil
}

// Append adds one cue at the end of the store. A cue that starts before the
// last stored cue is rejected with cue.ErrOutOfOrder and logged. A failed or
// unavailable transcript restarts stabilization from the stored count.
func (s *Session) Append(c cue.Cue) error {
	s.mu.Lock()
	if err := s.appendCue(c); err != nil {
		s.mu.Unlock()
		return err
	}
	count := s.store.Count()
	s.pushLocked(func(r Renderer) { r.CuesChanged(count) })
	if s.machine.State().Terminal() {
		state := s.machine.Reset(count)
		s.pushLocked(func(r Renderer) { r.LoadingStateChanged(state) })
	}
	s.resumeLocked()
	s.mu.Unlock()

	s.retick()
	return nil
}

// resumeLocked gets the loader observing again after a Load or Append. It
// restarts a loop that stopped on a terminal state.
func (s *Session) resumeLocked() {
	if !s.started || s.closed {
		return
	}
	s.poller.Resume(s.runCtx)
}

func (s *Session) appendCue(c cue.Cue) error {
	err := s.store.Append(c)
	if errors.Is(err, cue.ErrOutOfOrder) {
		logging.WarnWithContext(s.logger, "out-of-order cue rejected", "cue_out_of_order",
			logging.Seconds("start", c.Start),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "caption source emitted cues out of start order"),
		)
	}
	return err
}

// SeekToCue seeks the player to the start of the cue at index and resumes
// playback.
func (s *Session) SeekToCue(index int) error {
	if s.opts.Player == nil {
		return ErrNoPlayer
	}
	c, ok := s.store.At(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchCue, index)
	}
	if err := s.opts.Player.Seek(c.Start); err != nil {
		return fmt.Errorf("seek to cue %d: %w", index, err)
	}
	if err := s.opts.Player.Play(); err != nil {
		return fmt.Errorf("resume after seek: %w", err)
	}
	s.Tick(c.Start)
	return nil
}

// OnPlay asks the loader for an immediate observation. Players often only
// populate their text tracks once playback begins.
func (s *Session) OnPlay() {
	s.poller.Nudge()
}

// OnEnded schedules one last observation after the final check delay, so
// cues that arrived at the very end are still picked up.
func (s *Session) OnEnded() {
	s.after(s.opts.FinalCheckDelay, s.poller.Nudge)
}

// after runs fn once d elapses unless the session is closed first.
func (s *Session) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[t]
		delete(s.timers, t)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	s.timers[t] = struct{}{}
}

// observe is the loader's count function: it pulls from the source, appends
// what is new and reports the stored count.
func (s *Session) observe(ctx context.Context) (int, error) {
	if s.opts.Source == nil {
		return s.store.Count(), nil
	}
	generation := s.store.Generation()
	cues, err := s.opts.Source.Cues(ctx)
	if err != nil {
		return s.classify(err)
	}

	s.mu.Lock()
	if s.store.Generation() != generation {
		// Replaced while fetching; the fetched tail no longer lines up.
		count := s.store.Count()
		s.mu.Unlock()
		return count, nil
	}
	start := min(s.consumed, len(cues))
	s.consumed = max(s.consumed, len(cues))

	added := 0
	for _, c := range cues[start:] {
		if err := s.appendCue(c); err != nil {
			if !errors.Is(err, cue.ErrOutOfOrder) {
				s.logger.Warn("cue rejected", logging.Error(err))
			}
			continue
		}
		added++
	}
	count := s.store.Count()
	if added > 0 {
		s.lastErr = nil
		s.pushLocked(func(r Renderer) { r.CuesChanged(count) })
	}
	s.mu.Unlock()

	if added > 0 {
		s.retick()
	}
	return count, nil
}

// classify turns a source error into a loader outcome. Stored cues stay and
// keep counting as the observation, so a transcript loaded after the source
// broke still stabilizes.
func (s *Session) classify(err error) (int, error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if n := s.store.Count(); n > 0 {
		s.logger.Debug("caption source refresh failed", logging.Error(err))
		return n, nil
	}
	switch {
	case errors.Is(err, source.ErrNoCaptionsAvailable):
		return 0, loading.NoCaptions(err)
	case errors.Is(err, source.ErrSourceFetchFailed):
		logging.ErrorWithContext(s.logger, "caption source failed", "source_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the caption URL or file and network access"),
		)
		return 0, loading.Permanent(err)
	default:
		return 0, err
	}
}

// stateChanged forwards the machine's state as of now rather than the
// poller's copy, so a Load racing the poll loop is never followed by a stale
// event.
func (s *Session) stateChanged(loading.State) {
	s.mu.Lock()
	state := s.machine.State()
	s.pushLocked(func(r Renderer) { r.LoadingStateChanged(state) })
	s.mu.Unlock()
	s.logger.Info("transcript loading state", logging.String("state", state.String()))
}

// retick re-resolves the active cue at the clock's current time.
func (s *Session) retick() {
	if s.opts.Clock == nil {
		return
	}
	s.Tick(s.opts.Clock.CurrentTime())
}

func (s *Session) pushLocked(fn func(Renderer)) {
	if s.closed {
		return
	}
	s.events.push(fn)
}
