package logger

import "time"

// LogRequest records one portal round trip. Client errors are warnings, server
// errors are errors, everything else is debug noise.
func LogRequest(l Logger, method, url string, statusCode int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": float64(elapsed.Microseconds()) / 1000,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("portal request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("portal request client error", fields)
	default:
		l.DebugWithFields("portal request completed", fields)
	}
}

// LogItem records the outcome for one course item
func LogItem(l Logger, course, itemID, path string, skipped bool) {
	entry := l.WithFields(map[string]interface{}{
		"course":  course,
		"item_id": itemID,
		"path":    path,
	})
	if skipped {
		entry.Debug("file already present, skipped")
		return
	}
	entry.Info("file downloaded")
}
