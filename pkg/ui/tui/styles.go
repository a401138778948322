package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accentCyan    = lipgloss.Color("#00B7EB")
	accentMagenta = lipgloss.Color("#C678DD")
	accentGreen   = lipgloss.Color("#39D353")
	accentYellow  = lipgloss.Color("#E5C07B")
	errorRed      = lipgloss.Color("#E06C75")
	dimWhite      = lipgloss.Color("#B0B0B0")
	darkBg        = lipgloss.Color("#1E1E2E")

	baseStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Padding(0, 1)

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentMagenta).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(accentMagenta).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	// Stats styles
	statsLabelStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(accentYellow)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(accentYellow).
			Bold(true)

	plannedStyle = lipgloss.NewStyle().
			Foreground(accentCyan)

	// Course row styles
	courseActiveStyle = lipgloss.NewStyle().
				Foreground(accentGreen).
				Bold(true)

	coursePendingStyle = lipgloss.NewStyle().
				Foreground(dimWhite).
				Faint(true)

	// Log styles
	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	logMessageStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// outcomeGlyph returns the styled status glyph for a file outcome
func outcomeGlyph(o FileOutcome) string {
	switch o {
	case FileDownloaded:
		return successStyle.Render("✓")
	case FileSkipped:
		return warningStyle.Render("★")
	default:
		return plannedStyle.Render("→")
	}
}
