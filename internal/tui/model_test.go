package tui

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
)

type stubSession struct {
	cues   []cue.Cue
	state  loading.State
	active int
	ok     bool
	seeks  []int
	err    error
}

func (s *stubSession) Cues() []cue.Cue      { return s.cues }
func (s *stubSession) State() loading.State { return s.state }
func (s *stubSession) Active() (int, bool)  { return s.active, s.ok }
func (s *stubSession) SeekToCue(index int) error {
	if s.err != nil {
		return s.err
	}
	s.seeks = append(s.seeks, index)
	return nil
}

type stubTransport struct {
	position float64
	playing  bool
}

func (t *stubTransport) CurrentTime() float64 { return t.position }
func (t *stubTransport) Playing() bool        { return t.playing }
func (t *stubTransport) Toggle() error {
	t.playing = !t.playing
	return nil
}
func (t *stubTransport) Step(delta float64) error {
	t.position = max(t.position+delta, 0)
	return nil
}

func sampleSession() *stubSession {
	return &stubSession{
		cues: []cue.Cue{
			{Start: 0, End: 2, Text: "Hi"},
			{Start: 2, End: 5, Text: "there friend"},
			{Start: 5, End: 8, Text: "How are you today?"},
		},
		state: loading.State{Phase: loading.Stable, Count: 3},
	}
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelFollowsActiveCue(t *testing.T) {
	m := New(sampleSession(), &stubTransport{}, Options{})
	m = send(m, ActiveCueMsg{Index: 2, OK: true})
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}
	m = send(m, keyMsg("k"))
	if m.follow {
		t.Fatal("manual navigation should stop following")
	}
	m = send(m, ActiveCueMsg{Index: 0, OK: true})
	if m.cursor != 1 {
		t.Fatalf("cursor moved while not following: %d", m.cursor)
	}
}

func TestModelSeekOnEnter(t *testing.T) {
	sess := sampleSession()
	m := New(sess, &stubTransport{}, Options{})
	m = send(m, keyMsg("down"))
	m = send(m, keyMsg("enter"))
	if len(sess.seeks) != 1 || sess.seeks[0] != 1 {
		t.Fatalf("seeks = %v, want [1]", sess.seeks)
	}
	if !m.follow {
		t.Fatal("seeking should resume following")
	}

	sess.err = errors.New("no player")
	m = send(m, keyMsg("enter"))
	if !m.statusError || !strings.Contains(m.status, "no player") {
		t.Fatalf("status = %q (error %v)", m.status, m.statusError)
	}
}

func TestModelTransportKeys(t *testing.T) {
	tr := &stubTransport{position: 3}
	m := New(sampleSession(), tr, Options{})
	m = send(m, keyMsg(" "))
	if !tr.playing {
		t.Fatal("space should toggle playback")
	}
	m = send(m, keyMsg("l"))
	send(m, keyMsg("h"))
	if tr.position != 3 {
		t.Fatalf("position = %v, want 3", tr.position)
	}
}

func TestModelFilter(t *testing.T) {
	m := New(sampleSession(), &stubTransport{}, Options{})
	m = send(m, keyMsg("/"))
	if !m.filtering {
		t.Fatal("expected filter mode")
	}
	for _, r := range "today" {
		m = send(m, keyMsg(string(r)))
	}
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0] != 2 {
		t.Fatalf("filtered rows = %v, want [2]", rows)
	}
	m = send(m, keyMsg("enter"))
	if m.filtering {
		t.Fatal("enter should leave filter input")
	}
	m = send(m, keyMsg("esc"))
	if len(m.visibleRows()) != 3 {
		t.Fatalf("esc should clear filter, rows = %v", m.visibleRows())
	}
}

func TestModelPlaceholders(t *testing.T) {
	tests := []struct {
		state   loading.State
		partial bool
		want    string
	}{
		{loading.State{Phase: loading.Empty}, true, "Loading transcript"},
		{loading.State{Phase: loading.Partial, Count: 2}, false, "Loading transcript"},
		{loading.State{Phase: loading.Failed}, true, "could not be loaded"},
		{loading.State{Phase: loading.Empty, Unavailable: true}, true, "No captions"},
	}
	for _, tc := range tests {
		sess := sampleSession()
		sess.state = tc.state
		m := New(sess, &stubTransport{}, Options{RenderPartial: tc.partial})
		if view := m.View(); !strings.Contains(view, tc.want) {
			t.Errorf("state %s: view missing %q", tc.state, tc.want)
		}
	}

	sess := sampleSession()
	sess.state = loading.State{Phase: loading.Partial, Count: 3}
	m := New(sess, &stubTransport{}, Options{RenderPartial: true})
	if view := m.View(); !strings.Contains(view, "there friend") {
		t.Errorf("partial render should list cues:\n%s", view)
	}
}

func TestModelMessagesUpdateState(t *testing.T) {
	sess := sampleSession()
	m := New(sess, &stubTransport{}, Options{})
	sess.cues = append(sess.cues, cue.Cue{Start: 8, End: 9, Text: "Bye"})
	m = send(m, CuesMsg{Count: 4})
	if len(m.cues) != 4 {
		t.Fatalf("cues = %d, want 4", len(m.cues))
	}
	m = send(m, LoadingMsg{State: loading.State{Phase: loading.Partial, Count: 4}})
	if m.state.Phase != loading.Partial {
		t.Fatalf("state = %s", m.state)
	}
	m = send(m, LogLineMsg{Level: slog.LevelWarn, Line: "cue skipped"})
	if !m.statusError || m.status != "cue skipped" {
		t.Fatalf("status = %q", m.status)
	}
}
