package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/esdu/learn-scraper/pkg/ui"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCoursesPanel(width),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else if m.finished {
		sections = append(sections, helpStyle.Render("Run finished. Press q to quit"))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderHeader() string {
	status := m.spinner.View() + " fetching"
	switch {
	case m.finished && m.err != nil:
		status = errorStyle.Render("failed")
	case m.finished:
		status = successStyle.Render("done")
	}
	title := "learnscraper"
	if m.loggedIn != "" {
		title += " · " + m.loggedIn
	}
	return headerStyle.Render(title) + "  " + status + "  " + m.progress.View()
}

// renderStatsPanel renders the statistics panel
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN ")

	t := m.tally
	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(m.Elapsed()))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Courses:"), statsValueStyle.Render(fmt.Sprintf("%d/%d", m.Completed(), len(m.courses)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Downloaded:"), statsValueStyle.Render(fmt.Sprintf("%d files, %s", t.Downloaded, ui.FormatBytes(t.Bytes)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Skipped:"), statsValueStyle.Render(fmt.Sprintf("%d files", t.Skipped))),
	}
	if t.Planned > 0 {
		stats = append(stats, fmt.Sprintf("%s %s", statsLabelStyle.Render("Dry run:"), statsValueStyle.Render(fmt.Sprintf("%d files", t.Planned))))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderCoursesPanel renders one row per configured course
func (m *Model) renderCoursesPanel(width int) string {
	title := titleStyle.Render(" COURSES ")

	var rows []string
	for _, c := range m.courses {
		counts := fmt.Sprintf("%d ✓  %d ★", c.Downloaded, c.Skipped)
		switch c.State {
		case CourseActive:
			rows = append(rows, fmt.Sprintf("%s %s  %s", m.spinner.View(), courseActiveStyle.Render(c.Name), counts))
		case CourseDone:
			rows = append(rows, fmt.Sprintf("%s %s  %s", successStyle.Render("✓"), c.Name, counts))
		case CourseFailed:
			rows = append(rows, fmt.Sprintf("%s %s", errorStyle.Render("✗"), c.Name))
		default:
			rows = append(rows, coursePendingStyle.Render("  "+c.Name))
		}
	}
	if len(rows) == 0 {
		rows = append(rows, coursePendingStyle.Render("No courses configured"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

// renderRecentPanel renders the most recent file outcomes
func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" FILES ")

	var rows []string
	for _, f := range m.recent {
		name := filepath.Join(filepath.Base(filepath.Dir(f.Path)), filepath.Base(f.Path))
		row := outcomeGlyph(f.Outcome) + " " + truncate(name, width-6)
		rows = append(rows, row)
	}
	content := strings.Join(rows, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No files yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit (stops the run)
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Glyphs:
    ` + successStyle.Render("✓") + `        - File downloaded
    ` + warningStyle.Render("★") + `        - File skipped, already present
    ` + plannedStyle.Render("→") + `        - File would be downloaded (dry run)
`

	return panelStyle.Width(m.width - 2).Render(help)
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
