package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	errs "github.com/esdu/learn-scraper/pkg/errors"
)

// Status glyphs printed in front of every file line
const (
	GlyphDownloaded = "✓"
	GlyphSkipped    = "★"
	GlyphPlanned    = "→"
)

var (
	outMu        sync.Mutex
	out          io.Writer = os.Stdout
	colorEnabled           = true
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes, or
// returns it unchanged while colour is disabled
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetColor turns ANSI colour on or off for every helper in this package.
// Call it before any output is produced.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// SetOutput redirects console output. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func writeLine(s string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(out, s)
}

// PrintBanner prints the start banner
func PrintBanner() {
	writeLine("Starting Scraper")
}

// PrintLegend explains the status glyphs
func PrintLegend() {
	writeLine("Legend:")
	writeLine(fmt.Sprintf("  %s => a file is downloaded", Green(GlyphDownloaded)))
	writeLine(fmt.Sprintf("  %s => a file is skipped because it already exists", Yellow(GlyphSkipped)))
}

// PrintError prints a fatal error with its kind in red
func PrintError(kind errs.ErrorType, msg string) {
	writeLine(Red(fmt.Sprintf("Error (%s): %s", kind, msg)))
}

// PrintFailure prints err with the kind recovered from its chain
func PrintFailure(err error) {
	PrintError(errs.TypeOf(err), err.Error())
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	writeLine(Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	writeLine(fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		writeLine(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		writeLine(Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	writeLine(Magenta(msg))
}
