package tui

import (
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cuetrack/internal/loading"
)

// ActiveCueMsg reports a new active cue.
type ActiveCueMsg struct {
	Index int
	OK    bool
}

// LoadingMsg reports a loading state change.
type LoadingMsg struct {
	State loading.State
}

// CuesMsg reports that the cue store grew or was replaced.
type CuesMsg struct {
	Count int
}

// LogLineMsg carries a log line for the status bar.
type LogLineMsg struct {
	Level slog.Level
	Line  string
}

// clockMsg refreshes the playback position display.
type clockMsg time.Time

func clockTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// Bridge forwards transcript renderer events into a running bubbletea
// program. Events that arrive before Attach are dropped; the model reads the
// full session state when it starts.
type Bridge struct {
	mu      sync.RWMutex
	program *tea.Program
}

// Attach connects the bridge to program.
func (b *Bridge) Attach(program *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = program
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	p := b.program
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (b *Bridge) ActiveCueChanged(index int, ok bool) {
	b.send(ActiveCueMsg{Index: index, OK: ok})
}

func (b *Bridge) LoadingStateChanged(state loading.State) {
	b.send(LoadingMsg{State: state})
}

func (b *Bridge) CuesChanged(count int) {
	b.send(CuesMsg{Count: count})
}

// LogLine satisfies logging.LineFunc so warnings reach the status bar. It
// never blocks: loggers may be called while session locks are held.
func (b *Bridge) LogLine(level slog.Level, line string) {
	go b.send(LogLineMsg{Level: level, Line: line})
}
