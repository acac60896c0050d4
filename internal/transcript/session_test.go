package transcript

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
	"cuetrack/internal/logging"
	"cuetrack/internal/source"
)

type event struct {
	kind  string
	index int
	ok    bool
	state loading.State
	count int
}

func (e event) String() string {
	switch e.kind {
	case "active":
		return fmt.Sprintf("active(%d,%v)", e.index, e.ok)
	case "loading":
		return "loading(" + e.state.String() + ")"
	default:
		return fmt.Sprintf("cues(%d)", e.count)
	}
}

type recordingRenderer struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingRenderer) ActiveCueChanged(index int, ok bool) {
	r.add(event{kind: "active", index: index, ok: ok})
}

func (r *recordingRenderer) LoadingStateChanged(state loading.State) {
	r.add(event{kind: "loading", state: state})
}

func (r *recordingRenderer) CuesChanged(count int) {
	r.add(event{kind: "cues", count: count})
}

func (r *recordingRenderer) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingRenderer) of(kind string) []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event
	for _, e := range r.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingRenderer) lastState() (loading.State, bool) {
	states := r.of("loading")
	if len(states) == 0 {
		return loading.State{}, false
	}
	return states[len(states)-1].state, true
}

type fakePlayer struct {
	mu     sync.Mutex
	seeks  []float64
	played int
}

func (p *fakePlayer) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played++
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testOptions(src source.CueSource, r Renderer) Options {
	return Options{
		Source:          src,
		Renderer:        r,
		Loading:         loading.Config{StableObservations: 3, MaxAttempts: 5},
		InitialDelay:    time.Millisecond,
		PollInterval:    time.Millisecond,
		MonitorInterval: time.Millisecond,
		FinalCheckDelay: time.Millisecond,
		Logger:          logging.NewNop(),
	}
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionEndToEnd(t *testing.T) {
	r := &recordingRenderer{}
	src := source.StaticSource{List: []cue.Cue{
		{Start: 0, End: 2, Text: "Hi"},
		{Start: 2, End: 5, Text: "there"},
	}}
	s := newSession(t, testOptions(src, r))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "stable state", func() bool {
		state, _ := r.lastState()
		return state == loading.State{Phase: loading.Stable, Count: 2}
	})

	for _, step := range []struct {
		t     float64
		index int
		ok    bool
	}{
		{1, 0, true},
		{2, 1, true},
		{6, -1, false},
	} {
		index, ok := s.Tick(step.t)
		if index != step.index || ok != step.ok {
			t.Fatalf("Tick(%v) = %d, %v; want %d, %v", step.t, index, ok, step.index, step.ok)
		}
	}
	s.Tick(6.5)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	active := r.of("active")
	want := []string{"active(0,true)", "active(1,true)", "active(-1,false)"}
	if len(active) != len(want) {
		t.Fatalf("active events = %v, want %v", active, want)
	}
	for i := range want {
		if active[i].String() != want[i] {
			t.Fatalf("active events = %v, want %v", active, want)
		}
	}
	if cues := r.of("cues"); len(cues) != 1 || cues[0].count != 2 {
		t.Fatalf("cue events = %v", cues)
	}
}

func TestSessionStartTwice(t *testing.T) {
	s := newSession(t, testOptions(nil, &recordingRenderer{}))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	s.Close()
	if err := s.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSessionProgressiveSourceStabilizes(t *testing.T) {
	r := &recordingRenderer{}
	inner := source.StaticSource{List: []cue.Cue{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
		{Start: 2, End: 3, Text: "c"},
		{Start: 3, End: 4, Text: "d"},
	}}
	s := newSession(t, testOptions(&source.Progressive{Inner: inner, Batch: 2}, r))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "stable(4)", func() bool {
		state, _ := r.lastState()
		return state == loading.State{Phase: loading.Stable, Count: 4}
	})
	states := r.of("loading")
	want := []string{"loading(empty)", "loading(partial(2))", "loading(partial(4))", "loading(stable(4))"}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i].String() != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
	if got := len(s.Cues()); got != 4 {
		t.Fatalf("stored cues = %d, want 4", got)
	}
}

type errSource struct{ err error }

func (e errSource) Cues(context.Context) ([]cue.Cue, error) { return nil, e.err }

func TestSessionFetchFailureFails(t *testing.T) {
	r := &recordingRenderer{}
	s := newSession(t, testOptions(errSource{source.Wrap(source.ErrSourceFetchFailed, "fetch", "down", nil)}, r))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failed state", func() bool { return s.State().Phase == loading.Failed })
	if s.Unavailable() {
		t.Fatal("fetch failure must not report unavailable")
	}
	if !errors.Is(s.Err(), source.ErrSourceFetchFailed) {
		t.Fatalf("Err = %v", s.Err())
	}
}

func TestSessionNoCaptionsIsDistinctFromFailed(t *testing.T) {
	r := &recordingRenderer{}
	src := source.TrackSource{Tracks: func() []source.Track {
		return []source.Track{{Kind: "chapters"}}
	}}
	s := newSession(t, testOptions(src, r))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "unavailable", s.Unavailable)
	if s.State().Phase == loading.Failed {
		t.Fatal("no captions must not be reported as failed")
	}
	if !s.Renderable() {
		t.Fatal("unavailable state should be renderable")
	}
}

func TestSessionEmptySourceFailsAfterAttempts(t *testing.T) {
	r := &recordingRenderer{}
	buf := &source.Buffer{}
	src := source.TrackSource{Tracks: func() []source.Track {
		return []source.Track{{Kind: source.KindCaptions, Reader: buf.Read}}
	}}
	s := newSession(t, testOptions(src, r))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failed", func() bool { return s.State().Phase == loading.Failed })
	if s.Unavailable() {
		t.Fatal("an empty track times out as failed, not unavailable")
	}
}

func TestSessionPushModeAppend(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(nil, r)
	opts.Loading = loading.Config{StableObservations: 2, MaxAttempts: 1000}
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Append(cue.Cue{Start: 1, End: 2, Text: "one"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(cue.Cue{Start: 0, End: 1, Text: "early"}); !errors.Is(err, cue.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	waitFor(t, "stable(1)", func() bool {
		return s.State() == loading.State{Phase: loading.Stable, Count: 1}
	})
}

func TestSessionLoadResetsState(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(nil, r)
	opts.InitialDelay = time.Hour
	opts.PollInterval = time.Hour
	opts.MonitorInterval = time.Hour
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Tick(0.5)
	if err := s.Load([]cue.Cue{{Start: 0, End: 1, Text: "x"}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.State(); got != (loading.State{Phase: loading.Partial, Count: 1}) {
		t.Fatalf("state after Load = %s", got)
	}
	if err := s.Load([]cue.Cue{{Start: 2, End: 1}}); err == nil {
		t.Fatal("expected invalid cue to be rejected")
	}
	if index, ok := s.Tick(0.5); !ok || index != 0 {
		t.Fatalf("Tick after Load = %d, %v", index, ok)
	}
}

type fixedClock struct{ t float64 }

func (c fixedClock) CurrentTime() float64 { return c.t }

func TestSessionReticksWhenCuesArrive(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(nil, r)
	opts.Clock = fixedClock{t: 3}
	opts.InitialDelay = time.Hour
	opts.PollInterval = time.Hour
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Append(cue.Cue{Start: 2, End: 4, Text: "now"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if index, ok := s.Active(); !ok || index != 0 {
		t.Fatalf("Active = %d, %v", index, ok)
	}
}

func TestSessionSeekToCue(t *testing.T) {
	player := &fakePlayer{}
	opts := testOptions(nil, &recordingRenderer{})
	opts.Player = player
	s := newSession(t, opts)
	if err := s.Load([]cue.Cue{{Start: 0, End: 2}, {Start: 2.5, End: 4}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SeekToCue(1); err != nil {
		t.Fatalf("SeekToCue: %v", err)
	}
	if len(player.seeks) != 1 || player.seeks[0] != 2.5 || player.played != 1 {
		t.Fatalf("player = %+v", player)
	}
	if index, ok := s.Active(); !ok || index != 1 {
		t.Fatalf("Active = %d, %v", index, ok)
	}
	if err := s.SeekToCue(7); !errors.Is(err, ErrNoSuchCue) {
		t.Fatalf("expected ErrNoSuchCue, got %v", err)
	}

	noPlayer := newSession(t, testOptions(nil, &recordingRenderer{}))
	if err := noPlayer.SeekToCue(0); !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("expected ErrNoPlayer, got %v", err)
	}
}

func TestSessionNaNTickResolvesToNone(t *testing.T) {
	s := newSession(t, testOptions(nil, &recordingRenderer{}))
	if err := s.Load([]cue.Cue{{Start: 0, End: 10}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.Tick(math.NaN()); ok {
		t.Fatal("NaN tick should resolve to no cue")
	}
}

type countingSource struct {
	mu    sync.Mutex
	calls int
	cues  []cue.Cue
}

func (c *countingSource) Cues(context.Context) ([]cue.Cue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.cues, nil
}

func (c *countingSource) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSessionOnEndedSchedulesFinalCheck(t *testing.T) {
	src := &countingSource{cues: []cue.Cue{{Start: 0, End: 1}}}
	opts := testOptions(src, &recordingRenderer{})
	opts.InitialDelay = time.Hour
	opts.PollInterval = time.Hour
	opts.MonitorInterval = time.Hour
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.OnEnded()
	waitFor(t, "final observation", func() bool { return src.Calls() == 1 })
	s.OnPlay()
	waitFor(t, "play observation", func() bool { return src.Calls() == 2 })
}

func TestSessionCloseCancelsTimers(t *testing.T) {
	src := &countingSource{}
	opts := testOptions(src, &recordingRenderer{})
	opts.InitialDelay = time.Hour
	opts.PollInterval = time.Hour
	opts.FinalCheckDelay = 20 * time.Millisecond
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.OnEnded()
	s.Close()
	time.Sleep(50 * time.Millisecond)
	if got := src.Calls(); got != 0 {
		t.Fatalf("source called %d times after Close", got)
	}
}

func TestNewRequiresRenderer(t *testing.T) {
	if _, err := New(Options{PollInterval: time.Second, Loading: loading.DefaultConfig()}); err == nil {
		t.Fatal("expected error without renderer")
	}
}

func TestSessionLoadAfterFailureStabilizes(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(nil, r)
	opts.Loading = loading.Config{StableObservations: 2, MaxAttempts: 2}
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failed", func() bool { return s.State().Phase == loading.Failed })

	if err := s.Load([]cue.Cue{
		{Start: 0, End: 2, Text: "Hi"},
		{Start: 2, End: 5, Text: "there"},
	}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := loading.State{Phase: loading.Stable, Count: 2}
	waitFor(t, "stable(2)", func() bool { return s.State() == want })
	if !s.Renderable() {
		t.Fatal("stable transcript should be renderable")
	}
	waitFor(t, "stable(2) event", func() bool {
		state, _ := r.lastState()
		return state == want
	})
}

func TestSessionAppendAfterFailureRecovers(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(nil, r)
	opts.Loading = loading.Config{StableObservations: 2, MaxAttempts: 2}
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failed", func() bool { return s.State().Phase == loading.Failed })

	if err := s.Append(cue.Cue{Start: 0, End: 1, Text: "late"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if s.State().Phase == loading.Failed {
		t.Fatal("append should reopen a failed transcript")
	}
	waitFor(t, "stable(1)", func() bool {
		return s.State() == loading.State{Phase: loading.Stable, Count: 1}
	})
}

func TestSessionLoadWhileSourceKeepsFailing(t *testing.T) {
	r := &recordingRenderer{}
	opts := testOptions(errSource{source.Wrap(source.ErrSourceFetchFailed, "fetch", "down", nil)}, r)
	opts.Loading = loading.Config{StableObservations: 2, MaxAttempts: 5}
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failed", func() bool { return s.State().Phase == loading.Failed })

	if err := s.Load([]cue.Cue{{Start: 0, End: 1, Text: "manual"}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitFor(t, "stable(1)", func() bool {
		return s.State() == loading.State{Phase: loading.Stable, Count: 1}
	})
	if !errors.Is(s.Err(), source.ErrSourceFetchFailed) {
		t.Fatalf("Err = %v, want the source failure kept", s.Err())
	}
}

func TestSessionLoadRacingPollsEndsConsistent(t *testing.T) {
	r := &recordingRenderer{}
	src := source.StaticSource{List: []cue.Cue{
		{Start: 5, End: 6, Text: "from source"},
		{Start: 6, End: 7, Text: "also from source"},
	}}
	opts := testOptions(src, r)
	opts.Loading = loading.Config{StableObservations: 2, MaxAttempts: 1000}
	s := newSession(t, opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	loaded := []cue.Cue{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
		{Start: 2, End: 3, Text: "c"},
	}
	for range 50 {
		if err := s.Load(loaded); err != nil {
			t.Fatalf("Load: %v", err)
		}
		time.Sleep(200 * time.Microsecond)
	}
	want := loading.State{Phase: loading.Stable, Count: 3}
	waitFor(t, "stable(3)", func() bool { return s.State() == want })
	if got := s.Cues(); len(got) != 3 || got[2].Text != "c" {
		t.Fatalf("source cues leaked past a Load: %v", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if state, ok := r.lastState(); !ok || state != s.State() {
		t.Fatalf("last rendered state = %s, session state = %s", state, s.State())
	}
}
