package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber     = lipgloss.Color("#E5A00D")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	TimeStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	ActiveStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Amber).
			Bold(true)

	CursorStyle = lipgloss.NewStyle().
			Foreground(Amber)

	MatchStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Underline(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	StatusStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(DimGray)
)
