package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/esdu/learn-scraper/pkg/storage"
)

// ManifestFile is the per-course record of fetched files
const ManifestFile = ".learnscraper.json"

// Entry describes one downloaded file
type Entry struct {
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	FileName     string    `json:"file_name"`
	Bytes        int64     `json:"bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Manifest lists what has been fetched into one course folder
type Manifest struct {
	Course    string    `json:"course"`
	CourseID  string    `json:"course_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`

	path  string
	dirty bool
}

// Load reads the manifest in courseDir. A missing manifest yields an empty
// one.
func Load(courseDir, course string) (*Manifest, error) {
	path := filepath.Join(courseDir, ManifestFile)
	m := &Manifest{Course: course, path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest %s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// Path is where the manifest is stored
func (m *Manifest) Path() string {
	return m.path
}

// Record adds or replaces the entry for e.ItemID
func (m *Manifest) Record(e Entry) {
	m.dirty = true
	for i := range m.Entries {
		if m.Entries[i].ItemID == e.ItemID {
			m.Entries[i] = e
			return
		}
	}
	m.Entries = append(m.Entries, e)
}

// Save writes the manifest if anything was recorded since it was loaded
func (m *Manifest) Save(store *storage.Manager) error {
	if !m.dirty {
		return nil
	}

	sort.SliceStable(m.Entries, func(i, j int) bool {
		return m.Entries[i].FileName < m.Entries[j].FileName
	})
	m.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if _, err := store.Save(m.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return err
	}
	m.dirty = false
	return nil
}
