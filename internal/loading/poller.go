package loading

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cuetrack/internal/logging"
)

// CountFunc reports how many cues the source currently holds. Returned errors
// count as an observation without progress; wrap an error with Permanent to
// fail loading immediately.
type CountFunc func(ctx context.Context) (int, error)

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as unrecoverable for the poller.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type unavailableError struct{ err error }

func (e unavailableError) Error() string { return e.err.Error() }

func (e unavailableError) Unwrap() error { return e.err }

// NoCaptions marks err as meaning the media has no captions to load. The
// poller stops and the machine reports Unavailable instead of Failed.
func NoCaptions(err error) error {
	if err == nil {
		return nil
	}
	return unavailableError{err: err}
}

// IsNoCaptions reports whether err was marked with NoCaptions.
func IsNoCaptions(err error) bool {
	var u unavailableError
	return errors.As(err, &u)
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	// InitialDelay is the wait before the first observation.
	InitialDelay time.Duration
	// Interval separates observations while the state is Empty.
	Interval time.Duration
	// MonitorInterval separates observations once cues exist. Zero uses Interval.
	MonitorInterval time.Duration
	// OnChange receives every state change, serially, from the poll goroutine.
	OnChange func(State)
	Logger   *slog.Logger
}

// Poller observes a CountFunc on a fixed interval and feeds a Machine. There
// is no backoff: caption data is small and bounded by the media duration.
// The poller keeps observing after Stable so late cues reopen stabilization,
// and exits on its own once the machine reaches a terminal state. Resume
// brings it back after the machine was Reset.
type Poller struct {
	machine *Machine
	count   CountFunc
	opts    PollerOptions
	logger  *slog.Logger

	nudge chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller wires a poller around machine and count.
func NewPoller(machine *Machine, count CountFunc, opts PollerOptions) (*Poller, error) {
	if machine == nil || count == nil {
		return nil, errors.New("loading: poller requires a machine and count func")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("loading: poll interval must be positive")
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = opts.Interval
	}
	return &Poller{
		machine: machine,
		count:   count,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "loader"),
		nudge:   make(chan struct{}, 1),
	}, nil
}

// Start launches the poll loop. It returns an error when already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("loading: poller already running")
	}
	p.startLocked(ctx, p.opts.InitialDelay)
	return nil
}

// Resume restarts a loop that exited on a terminal state, observing after
// one interval. A running loop is nudged instead.
func (p *Poller) Resume(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.Nudge()
		return
	}
	p.startLocked(ctx, p.intervalFor(p.machine.State()))
}

func (p *Poller) startLocked(ctx context.Context, delay time.Duration) {
	if p.cancel != nil {
		p.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.loop(runCtx, p.done, delay)
}

// Stop cancels the poll loop and waits for it to exit. It is safe to call
// more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current loop exits, through Stop, context
// cancellation or a terminal state.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

// Nudge requests an immediate observation without waiting for the next
// interval. Extra nudges while one is pending are dropped.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}, delay time.Duration) {
	defer close(done)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-timer.C:
		case <-p.nudge:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if state := p.observe(ctx); state.Terminal() && p.exitIfTerminal() {
			return
		}
		timer.Reset(p.intervalFor(p.machine.State()))
	}
}

// exitIfTerminal marks the loop stopped when the machine is still terminal.
// Resume holds p.mu too, so a Reset either lands before this check or finds
// the loop stopped.
func (p *Poller) exitIfTerminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.machine.State().Terminal() {
		return false
	}
	p.running = false
	return true
}

func (p *Poller) observe(ctx context.Context) State {
	epoch := p.machine.Epoch()
	count, err := p.count(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return p.machine.State()
		}
		if IsNoCaptions(err) {
			p.logger.Info("no captions available",
				logging.Error(err),
				logging.String(logging.FieldEventType, "captions_unavailable"),
			)
			if p.machine.markUnavailableAt(epoch) {
				p.emit(p.machine.State())
			}
			return p.machine.State()
		}
		if IsPermanent(err) {
			p.logger.Warn("caption source failed permanently",
				logging.Error(err),
				logging.String(logging.FieldEventType, "source_permanent_failure"),
			)
			if p.machine.failAt(epoch) {
				p.emit(p.machine.State())
			}
			return p.machine.State()
		}
		p.logger.Debug("cue count unavailable", logging.Error(err))
		current := p.machine.State()
		if current.Phase != Empty {
			// Stabilization only advances on real observations.
			return current
		}
		count = 0
	}

	state, changed := p.machine.observeAt(epoch, count)
	if changed {
		p.logger.Debug("loading state changed",
			logging.String("state", state.String()),
			logging.Int("attempts", p.machine.Attempts()),
		)
		p.emit(state)
	}
	return state
}

func (p *Poller) emit(state State) {
	if p.opts.OnChange != nil {
		p.opts.OnChange(state)
	}
}

func (p *Poller) intervalFor(state State) time.Duration {
	if state.Phase == Empty {
		return p.opts.Interval
	}
	return p.opts.MonitorInterval
}
