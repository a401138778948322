package ui

import (
	"fmt"
	"sync"
	"time"
)

// Tally counts file outcomes across a run
type Tally struct {
	mu         sync.Mutex
	Downloaded int
	Skipped    int
	Planned    int
	Bytes      int64
	StartTime  time.Time
}

// NewTally creates a tally starting now
func NewTally() *Tally {
	return &Tally{StartTime: time.Now()}
}

// AddDownloaded counts a written file of n bytes
func (t *Tally) AddDownloaded(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Downloaded++
	t.Bytes += n
}

// AddSkipped counts a file that was already present
func (t *Tally) AddSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Skipped++
}

// AddPlanned counts a file a dry run would write
func (t *Tally) AddPlanned() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Planned++
}

// Elapsed returns the time since the tally started
func (t *Tally) Elapsed() time.Duration {
	return time.Since(t.StartTime)
}

// Summary returns a one-line description of the counts
func (t *Tally) Summary() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := fmt.Sprintf("%d downloaded (%s), %d skipped", t.Downloaded, FormatBytes(t.Bytes), t.Skipped)
	if t.Planned > 0 {
		s += fmt.Sprintf(", %d would be downloaded", t.Planned)
	}
	return s
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatElapsed formats a run duration as fractional seconds
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
