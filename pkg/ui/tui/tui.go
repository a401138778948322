package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/esdu/learn-scraper/pkg/ui"
)

// TUI is a full-screen ui.Reporter. The scraper runs on its own goroutine
// and reports through messages; the bubbletea program owns the model.
type TUI struct {
	program *tea.Program
	model   *Model
	start   time.Time
}

var _ ui.Reporter = (*TUI)(nil)

// New creates a TUI for a run over courses
func New(courses []string, opts ...tea.ProgramOption) *TUI {
	model := NewModel(courses)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
		start:   time.Now(),
	}
}

// Run starts work on a new goroutine and shows its progress until the user
// quits. Quitting before work returns cancels its context. Run returns the
// error work returned.
func (t *TUI) Run(ctx context.Context, work func(ctx context.Context, r ui.Reporter) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- work(ctx, t)
	}()

	if _, err := t.program.Run(); err != nil {
		cancel()
		<-result
		return err
	}

	cancel()
	return <-result
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Start resets the clock and logs the start of the run
func (t *TUI) Start() {
	t.start = time.Now()
	t.Send(LogMsg{Level: "INFO", Message: "Starting Scraper"})
}

// LoggingIn shows the login step
func (t *TUI) LoggingIn(username string) {
	t.Send(LoginMsg{Username: username})
}

// CourseStarted marks a course active
func (t *TUI) CourseStarted(course string) {
	t.Send(CourseStartMsg{Course: course})
}

// Downloaded adds a written file to the recent list
func (t *TUI) Downloaded(course, path string, bytes int64) {
	t.Send(FileMsg{Course: course, Path: path, Bytes: bytes, Outcome: FileDownloaded})
}

// Skipped adds a file already on disk to the recent list
func (t *TUI) Skipped(course, path string) {
	t.Send(FileMsg{Course: course, Path: path, Outcome: FileSkipped})
}

// Planned adds a dry-run path to the recent list
func (t *TUI) Planned(course, path string) {
	t.Send(FileMsg{Course: course, Path: path, Outcome: FilePlanned})
}

// CourseFinished marks a course done and advances the progress bar
func (t *TUI) CourseFinished(course string) {
	t.Send(CourseDoneMsg{Course: course})
}

// Done ends the run successfully
func (t *TUI) Done(elapsed time.Duration) {
	t.Send(RunDoneMsg{Elapsed: elapsed})
}

// Failed ends the run with err
func (t *TUI) Failed(err error) {
	t.Send(RunDoneMsg{Elapsed: time.Since(t.start), Err: err})
}
