package ui

import (
	"fmt"
	"time"
)

// Console prints run progress as plain lines: one "<glyph> <path>" line per
// file, bracketed by the banner and the elapsed time.
type Console struct {
	tally    *Tally
	verbose  bool
	notifier *Notifier
}

// NewConsole creates a console reporter. verbose adds per-course summaries;
// a non-nil notifier also gets a desktop notification when the run ends.
func NewConsole(verbose bool, notifier *Notifier) *Console {
	return &Console{
		tally:    NewTally(),
		verbose:  verbose,
		notifier: notifier,
	}
}

// Tally exposes the counts gathered so far
func (c *Console) Tally() *Tally {
	return c.tally
}

// Start prints the banner and the legend
func (c *Console) Start() {
	PrintBanner()
	PrintLegend()
}

// LoggingIn announces the login
func (c *Console) LoggingIn(username string) {
	writeLine("Logging in")
}

// CourseStarted announces a course
func (c *Console) CourseStarted(course string) {
	writeLine(fmt.Sprintf("Fetching files for %s", course))
}

// Downloaded prints a success line for a written file
func (c *Console) Downloaded(course, path string, bytes int64) {
	c.tally.AddDownloaded(bytes)
	writeLine(fmt.Sprintf("%s %s", Green(GlyphDownloaded), path))
}

// Skipped prints a skip line for a file already on disk
func (c *Console) Skipped(course, path string) {
	c.tally.AddSkipped()
	writeLine(fmt.Sprintf("%s %s", Yellow(GlyphSkipped), path))
}

// Planned prints the path a dry run would write
func (c *Console) Planned(course, path string) {
	c.tally.AddPlanned()
	writeLine(fmt.Sprintf("%s %s", Cyan(GlyphPlanned), path))
}

// CourseFinished prints the running totals in verbose mode
func (c *Console) CourseFinished(course string) {
	if c.verbose {
		writeLine(Dim("  so far: " + c.tally.Summary()))
	}
}

// Done prints the closing lines and sends the success notification
func (c *Console) Done(elapsed time.Duration) {
	writeLine("Done!")
	writeLine(fmt.Sprintf("Time elapsed %s seconds", FormatElapsed(elapsed)))
	if c.notifier != nil {
		c.notifier.SendSuccess("learnscraper", c.tally.Summary())
	}
}

// Failed prints err with its kind and sends the error notification
func (c *Console) Failed(err error) {
	PrintFailure(err)
	if c.notifier != nil {
		c.notifier.SendError("learnscraper", err.Error())
	}
}
