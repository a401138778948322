package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	errs "github.com/esdu/learn-scraper/pkg/errors"
)

// Manager lays out course folders under one output directory and writes
// files into them atomically
type Manager struct {
	outputDir string
	written   int
	mu        sync.Mutex
}

// NewManager creates a storage manager rooted at outputDir. Nothing is
// created on disk until a file is saved.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

var courseSeparator = regexp.MustCompile(`\s*/\s*`)

// CourseDirName turns a course name into a single path component by
// replacing every "/", together with the spaces around it, with " - "
func CourseDirName(courseName string) string {
	return courseSeparator.ReplaceAllString(courseName, " - ")
}

// CourseDir returns the folder for a course
func (m *Manager) CourseDir(courseName string) string {
	return filepath.Join(m.outputDir, CourseDirName(courseName))
}

// Path returns where a course file lives
func (m *Manager) Path(courseName, fileName string) string {
	return filepath.Join(m.CourseDir(courseName), fileName)
}

// EnsureCourseDir creates the course folder and its parents
func (m *Manager) EnsureCourseDir(courseName string) (string, error) {
	dir := m.CourseDir(courseName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeStorage, err, "failed to create course directory")
	}
	return dir, nil
}

// Exists reports whether a regular file is already present at path. Anything
// else occupying path, such as a directory, is a storage error.
func (m *Manager) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.ErrorTypeStorage, err, "failed to stat %s", path)
	}
	if !info.Mode().IsRegular() {
		return false, errs.New(errs.ErrorTypeStorage, "%s exists and is not a regular file", path)
	}
	return true, nil
}

// Save writes r to path through a temporary file in the same directory and
// renames it into place, so an interrupted run never leaves a partial file
// under the final name. It returns the number of bytes written.
func (m *Manager) Save(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create directory")
	}

	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create temporary file")
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		// Read failures already tagged by the source keep their kind
		var tagged *errs.Error
		if errors.As(err, &tagged) {
			return 0, err
		}
		return 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to write %s", path)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeStorage, closeErr, "failed to close %s", path)
	}
	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to set permissions on %s", path)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to move %s into place", path)
	}

	m.mu.Lock()
	m.written++
	m.mu.Unlock()

	return n, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// WrittenCount is the number of files saved through this manager
func (m *Manager) WrittenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

func (m *Manager) String() string {
	return fmt.Sprintf("storage(%s)", m.outputDir)
}
