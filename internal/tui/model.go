// Package tui renders a transcript session as an interactive terminal panel.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
)

// Session is the part of a transcript session the panel reads and drives.
type Session interface {
	Cues() []cue.Cue
	State() loading.State
	Active() (int, bool)
	SeekToCue(index int) error
}

// Transport controls the playback clock.
type Transport interface {
	CurrentTime() float64
	Playing() bool
	Toggle() error
	Step(delta float64) error
}

const (
	stepSeconds  = 5
	chromeHeight = 4
)

// Options configures the panel.
type Options struct {
	Title         string
	RenderPartial bool
	Keys          *KeyMap
}

// Model is the bubbletea model of the transcript panel.
type Model struct {
	session   Session
	transport Transport
	keys      KeyMap
	title     string
	partial   bool

	cues   []cue.Cue
	state  loading.State
	active int
	hasAct bool

	cursor int
	offset int
	follow bool

	filter    textinput.Model
	filtering bool
	matches   fuzzy.Matches

	status      string
	statusError bool
	width       int
	height      int
}

// New builds the panel model.
func New(session Session, transport Transport, opts Options) Model {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	ti := textinput.New()
	ti.Placeholder = "Filter cues..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = CursorStyle
	ti.PlaceholderStyle = DimStyle

	m := Model{
		session:   session,
		transport: transport,
		keys:      keys,
		title:     opts.Title,
		partial:   opts.RenderPartial,
		follow:    true,
		filter:    ti,
		width:     80,
		height:    24,
	}
	m.reload()
	return m
}

func (m *Model) reload() {
	m.cues = m.session.Cues()
	m.state = m.session.State()
	m.active, m.hasAct = m.session.Active()
	m.applyFilter()
}

// Init starts the position display refresh.
func (m Model) Init() tea.Cmd {
	return clockTick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollTo(m.cursor)
		return m, nil
	case clockMsg:
		return m, clockTick()
	case CuesMsg:
		m.cues = m.session.Cues()
		m.applyFilter()
		return m, nil
	case LoadingMsg:
		m.state = msg.State
		return m, nil
	case ActiveCueMsg:
		m.active, m.hasAct = msg.Index, msg.OK
		if m.follow && msg.OK && !m.filtering && len(m.matches) == 0 {
			m.cursor = msg.Index
			m.scrollTo(m.cursor)
		}
		return m, nil
	case LogLineMsg:
		m.status = msg.Line
		m.statusError = msg.Level >= slog.LevelWarn
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.visibleRows()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.follow = false
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.moveCursor(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.follow = false
		m.moveCursor(m.listHeight())
	case key.Matches(msg, m.keys.Seek):
		if len(rows) == 0 {
			return m, nil
		}
		index := rows[m.cursor]
		if err := m.session.SeekToCue(index); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.follow = true
		m.setStatus(fmt.Sprintf("seeked to %s", cue.FormatTimestamp(m.cues[index].Start)), false)
	case key.Matches(msg, m.keys.Play):
		m.reportErr(m.transport.Toggle())
	case key.Matches(msg, m.keys.Back):
		m.reportErr(m.transport.Step(-stepSeconds))
	case key.Matches(msg, m.keys.Forward):
		m.reportErr(m.transport.Step(stepSeconds))
	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow && m.hasAct && len(m.matches) == 0 {
			m.cursor = m.active
			m.scrollTo(m.cursor)
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Escape):
		m.filter.SetValue("")
		m.applyFilter()
	}
	return m, nil
}

func (m *Model) reportErr(err error) {
	if err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status, m.statusError = text, isErr
}

// applyFilter recomputes the filtered rows. Matches keep fuzzy rank order.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		m.matches = nil
	} else {
		texts := make([]string, len(m.cues))
		for i, c := range m.cues {
			texts[i] = strings.ToLower(c.Text)
		}
		m.matches = fuzzy.Find(strings.ToLower(query), texts)
	}
	m.cursor = min(m.cursor, max(len(m.visibleRows())-1, 0))
	m.scrollTo(m.cursor)
}

// visibleRows maps list rows to cue indexes.
func (m Model) visibleRows() []int {
	if strings.TrimSpace(m.filter.Value()) == "" {
		rows := make([]int, len(m.cues))
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rows := make([]int, len(m.matches))
	for i, match := range m.matches {
		rows[i] = match.Index
	}
	return rows
}

func (m *Model) moveCursor(delta int) {
	n := len(m.visibleRows())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.scrollTo(m.cursor)
}

func (m Model) listHeight() int {
	return max(m.height-chromeHeight, 1)
}

// scrollTo keeps row visible, centring it when the list scrolls.
func (m *Model) scrollTo(row int) {
	h := m.listHeight()
	if row < m.offset || row >= m.offset+h {
		m.offset = max(row-h/2, 0)
	}
}

// View renders the panel.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.body())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header() string {
	title := m.title
	if title == "" {
		title = "Transcript"
	}
	position := cue.FormatTimestamp(m.transport.CurrentTime())
	playing := "paused"
	if m.transport.Playing() {
		playing = "playing"
	}
	follow := ""
	if m.follow {
		follow = " · follow"
	}
	right := TimeStyle.Render(fmt.Sprintf("%s %s · %s%s", position, playing, m.state, follow))
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	return TitleStyle.Render(title) + strings.Repeat(" ", gap) + right
}

func (m Model) body() string {
	if msg, ok := m.placeholder(); ok {
		return DimStyle.Render(msg)
	}
	rows := m.visibleRows()
	if len(rows) == 0 {
		return DimStyle.Render("No cues match the filter.")
	}
	end := min(m.offset+m.listHeight(), len(rows))
	lines := make([]string, 0, end-m.offset)
	for row := m.offset; row < end; row++ {
		lines = append(lines, m.renderRow(row, rows[row]))
	}
	return strings.Join(lines, "\n")
}

// placeholder returns the message shown instead of the cue list.
func (m Model) placeholder() (string, bool) {
	switch {
	case m.state.Unavailable:
		return "No captions are available for this media.", true
	case m.state.Phase == loading.Failed:
		return "The transcript could not be loaded.", true
	case !m.state.Renderable(m.partial):
		return "Loading transcript...", true
	default:
		return "", false
	}
}

func (m Model) renderRow(row, index int) string {
	c := m.cues[index]
	marker := "  "
	if row == m.cursor {
		marker = CursorStyle.Render("> ")
	}
	stamp := TimeStyle.Render(cue.FormatTimestamp(c.Start))
	text := c.Text
	if len(m.matches) > 0 && row < len(m.matches) {
		text = highlight(c.Text, m.matches[row].MatchedIndexes)
	}
	width := max(m.width-lipgloss.Width(stamp)-4, 10)
	text = lipgloss.NewStyle().MaxWidth(width).Render(text)
	if m.hasAct && index == m.active {
		text = ActiveStyle.Render(text)
	}
	return marker + stamp + "  " + text
}

// highlight styles the runes at the matched byte offsets.
func highlight(text string, matched []int) string {
	if len(matched) == 0 {
		return text
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}
	var b strings.Builder
	for i, r := range text {
		if set[i] {
			b.WriteString(MatchStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (m Model) footer() string {
	var parts []string
	if m.filtering || m.filter.Value() != "" {
		parts = append(parts, m.filter.View())
	}
	help := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	status := m.status
	switch {
	case status == "":
		status = DimStyle.Render(strings.Join(help, " · "))
	case m.statusError:
		status = ErrorStyle.Render(status)
	default:
		status = SuccessStyle.Render(status)
	}
	parts = append(parts, StatusStyle.Width(max(m.width, 1)).Render(status))
	return strings.Join(parts, "\n")
}
