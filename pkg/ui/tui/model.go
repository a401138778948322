package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/esdu/learn-scraper/pkg/ui"
)

// CourseState is where a course is in the run
type CourseState int

const (
	CoursePending CourseState = iota
	CourseActive
	CourseDone
	CourseFailed
)

// FileOutcome is what happened to one file
type FileOutcome int

const (
	FileDownloaded FileOutcome = iota
	FileSkipped
	FilePlanned
)

// CourseStatus tracks one configured course
type CourseStatus struct {
	Name       string
	State      CourseState
	Downloaded int
	Skipped    int
	Planned    int
	Bytes      int64
}

// FileEntry is a file line shown in the recent files panel
type FileEntry struct {
	Course  string
	Path    string
	Bytes   int64
	Outcome FileOutcome
}

// Model represents the TUI model. Update and View run on the bubbletea
// goroutine only.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	courses     []*CourseStatus
	courseIndex map[string]*CourseStatus
	recent      []FileEntry
	maxRecent   int

	tally     *ui.Tally
	startTime time.Time
	elapsed   time.Duration
	loggedIn  string
	finished  bool
	err       error

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a model for a run over courses, in order
func NewModel(courses []string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	m := &Model{
		spinner:        s,
		progress:       p,
		courseIndex:    make(map[string]*CourseStatus),
		maxRecent:      12,
		tally:          ui.NewTally(),
		startTime:      time.Now(),
		maxLogMessages: 50,
	}
	for _, name := range courses {
		m.addCourse(name)
	}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m *Model) addCourse(name string) *CourseStatus {
	if c, ok := m.courseIndex[name]; ok {
		return c
	}
	c := &CourseStatus{Name: name}
	m.courses = append(m.courses, c)
	m.courseIndex[name] = c
	return c
}

// StartCourse marks a course as being fetched
func (m *Model) StartCourse(name string) {
	m.addCourse(name).State = CourseActive
	m.AddLogMessage("INFO", "Fetching files for "+name)
}

// FinishCourse marks a course as complete
func (m *Model) FinishCourse(name string) {
	m.addCourse(name).State = CourseDone
}

// RecordFile counts a file outcome against its course
func (m *Model) RecordFile(entry FileEntry) {
	c := m.addCourse(entry.Course)
	switch entry.Outcome {
	case FileDownloaded:
		c.Downloaded++
		c.Bytes += entry.Bytes
		m.tally.AddDownloaded(entry.Bytes)
	case FileSkipped:
		c.Skipped++
		m.tally.AddSkipped()
	case FilePlanned:
		c.Planned++
		m.tally.AddPlanned()
	}

	m.recent = append(m.recent, entry)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// Finish records the end of the run; err is nil on success
func (m *Model) Finish(elapsed time.Duration, err error) {
	m.finished = true
	m.elapsed = elapsed
	m.err = err
	if err != nil {
		for _, c := range m.courses {
			if c.State == CourseActive {
				c.State = CourseFailed
			}
		}
		m.AddLogMessage("ERROR", err.Error())
		return
	}
	m.AddLogMessage("SUCCESS", "Done! "+m.tally.Summary())
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = errorRed
	case "WARN":
		color = accentYellow
	case "SUCCESS":
		color = accentGreen
	case "INFO":
		color = accentCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Courses returns the course rows in run order
func (m *Model) Courses() []*CourseStatus {
	return m.courses
}

// Completed returns how many courses have finished
func (m *Model) Completed() int {
	n := 0
	for _, c := range m.courses {
		if c.State == CourseDone {
			n++
		}
	}
	return n
}

// Percent returns the fraction of courses finished
func (m *Model) Percent() float64 {
	if len(m.courses) == 0 {
		return 0
	}
	return float64(m.Completed()) / float64(len(m.courses))
}

// Finished reports whether the run has ended
func (m *Model) Finished() bool {
	return m.finished
}

// Err returns the error that ended the run, if any
func (m *Model) Err() error {
	return m.err
}

// Elapsed returns the run time so far, or the final run time once finished
func (m *Model) Elapsed() time.Duration {
	if m.finished {
		return m.elapsed
	}
	return time.Since(m.startTime)
}
