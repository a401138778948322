// Package logger provides structured logging for learnscraper.
//
// It wraps zerolog behind a small Logger interface so that components can be
// handed a logger explicitly and tests can swap in NewTestLogger or
// NewNopLogger.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("course", "MATH 135").Debug("walking content")
//
// Console records go to stderr; stdout is reserved for the scraper's own
// progress lines.
package logger
