// Package ui prints scraper progress to the terminal.
//
// Console is the default Reporter: a start banner, a legend for the two status
// glyphs, one "<glyph> <path>" line per file and the elapsed time. Colour can
// be switched off with SetColor for non-terminal output. The tui subpackage
// provides a full-screen alternative behind the same Reporter interface.
package ui
