package ui

import "time"

// Reporter receives run progress. Console prints it line by line; the tui
// package renders it full screen.
type Reporter interface {
	Start()
	LoggingIn(username string)
	CourseStarted(course string)
	Downloaded(course, path string, bytes int64)
	Skipped(course, path string)
	Planned(course, path string)
	CourseFinished(course string)
	Done(elapsed time.Duration)
	Failed(err error)
}
