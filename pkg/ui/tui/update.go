package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// LoginMsg is sent before credentials are submitted
type LoginMsg struct {
	Username string
}

// CourseStartMsg is sent when a course's content walk begins
type CourseStartMsg struct {
	Course string
}

// FileMsg is sent for every resolved file
type FileMsg FileEntry

// CourseDoneMsg is sent when every item of a course has been handled
type CourseDoneMsg struct {
	Course string
}

// RunDoneMsg is sent when the run ends; Err is nil on success
type RunDoneMsg struct {
	Elapsed time.Duration
	Err     error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.progress.Update(msg)
		if p, ok := model.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd()

	case LoginMsg:
		m.loggedIn = msg.Username
		m.AddLogMessage("INFO", "Logging in as "+msg.Username)
		return m, nil

	case CourseStartMsg:
		m.StartCourse(msg.Course)
		return m, nil

	case FileMsg:
		m.RecordFile(FileEntry(msg))
		return m, nil

	case CourseDoneMsg:
		m.FinishCourse(msg.Course)
		return m, m.progress.SetPercent(m.Percent())

	case RunDoneMsg:
		m.Finish(msg.Elapsed, msg.Err)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func progressWidth(termWidth int) int {
	w := termWidth/2 - 10
	if w < 10 {
		w = 10
	}
	return w
}
