package course

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esdu/learn-scraper/internal/portaltest"
	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/metadata"
	"github.com/esdu/learn-scraper/pkg/portal"
	"github.com/esdu/learn-scraper/pkg/storage"
)

type recorder struct {
	mu         sync.Mutex
	downloaded []string
	skipped    []string
	planned    []string
}

func (r *recorder) Downloaded(course, path string, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloaded = append(r.downloaded, path)
}

func (r *recorder) Skipped(course, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, path)
}

func (r *recorder) Planned(course, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planned = append(r.planned, path)
}

var algebra = portaltest.Course{
	Name: "AFM 131 / ARBUS 101",
	OU:   "7011",
	Items: []portaltest.Item{
		{ID: "201", Title: "Syllabus", FileName: "syllabus.pdf", Body: []byte("syllabus body")},
		{ID: "202", Title: "Week 1 slides", FileName: "Week 1.pptx", Body: []byte("slides body")},
		{ID: "203", Title: "Handout", FileName: "ignored-name.bin", Disposition: "handout.docx", Body: []byte("handout body")},
		{ID: "299", Title: "External link", OnClick: "window.open('https://example.com');"},
	},
}

func walkCourse(t *testing.T, session *portal.Session, home *portal.Page, name string) *Listing {
	t.Helper()
	link, err := Locate(home, name, false)
	require.NoError(t, err)
	listing, err := NewWalker(session, logger.NewNopLogger()).Walk(context.Background(), home, name, link)
	require.NoError(t, err)
	return listing
}

func newDownloader(t *testing.T, server *portaltest.Server, session *portal.Session, store *storage.Manager, rep Reporter, dryRun bool) *Downloader {
	t.Helper()
	base, err := url.Parse(server.URL())
	require.NoError(t, err)
	return NewDownloader(session, store, rep, Options{PortalURL: base, DryRun: dryRun}, logger.NewNopLogger())
}

func TestDownloadThenSkip(t *testing.T) {
	server, session, home := loggedIn(t, algebra)
	out := t.TempDir()
	store := storage.NewManager(out)
	listing := walkCourse(t, session, home, algebra.Name)
	courseDir := filepath.Join(out, "AFM 131 - ARBUS 101")

	rep := &recorder{}
	summary, err := newDownloader(t, server, session, store, rep, false).Download(context.Background(), listing)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Downloaded)
	assert.Equal(t, 0, summary.Skipped)
	// "Week 1" toggle plus the external link
	assert.Equal(t, 2, summary.Ignored)
	assert.Equal(t, []string{
		filepath.Join(courseDir, "syllabus.pdf"),
		filepath.Join(courseDir, "Week_1.pptx"),
		filepath.Join(courseDir, "handout.docx"),
	}, rep.downloaded)
	assert.Empty(t, rep.skipped)

	content, err := os.ReadFile(filepath.Join(courseDir, "syllabus.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "syllabus body", string(content))

	manifest, err := metadata.Load(courseDir, algebra.Name)
	require.NoError(t, err)
	assert.Len(t, manifest.Entries, 3)
	assert.Equal(t, "7011", manifest.CourseID)
	assert.Contains(t, manifestFiles(manifest), "handout.docx")

	before := snapshot(t, out)

	// Second run: everything is skipped and nothing changes on disk
	rep2 := &recorder{}
	summary, err = newDownloader(t, server, session, store, rep2, false).Download(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 3, summary.Skipped)
	assert.Empty(t, rep2.downloaded)
	assert.Len(t, rep2.skipped, 3)
	assert.Equal(t, before, snapshot(t, out))
}

func TestExistingFileIsNotOverwritten(t *testing.T) {
	server, session, home := loggedIn(t, algebra)
	out := t.TempDir()
	courseDir := filepath.Join(out, storage.CourseDirName(algebra.Name))
	require.NoError(t, os.MkdirAll(courseDir, 0755))
	existing := filepath.Join(courseDir, "syllabus.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("my annotated copy"), 0644))

	rep := &recorder{}
	listing := walkCourse(t, session, home, algebra.Name)
	summary, err := newDownloader(t, server, session, storage.NewManager(out), rep, false).Download(context.Background(), listing)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Downloaded)
	assert.Equal(t, []string{existing}, rep.skipped)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "my annotated copy", string(content))
}

func TestDryRunWritesNothing(t *testing.T) {
	server, session, home := loggedIn(t, algebra)
	out := filepath.Join(t.TempDir(), "downloads")

	rep := &recorder{}
	listing := walkCourse(t, session, home, algebra.Name)
	summary, err := newDownloader(t, server, session, storage.NewManager(out), rep, true).Download(context.Background(), listing)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Planned)
	assert.Len(t, rep.planned, 3)
	assert.Empty(t, rep.downloaded)
	assert.NoDirExists(t, out)
}

func TestDownloadMissingFrame(t *testing.T) {
	course := portaltest.Course{
		Name:  "CS 136",
		OU:    "1",
		Items: []portaltest.Item{{ID: "5", Title: "Quiz", NoFrame: true}},
	}
	server, session, home := loggedIn(t, course)

	listing := walkCourse(t, session, home, course.Name)
	_, err := newDownloader(t, server, session, storage.NewManager(t.TempDir()), &recorder{}, false).Download(context.Background(), listing)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestDownloadFileNotFound(t *testing.T) {
	course := portaltest.Course{
		Name:  "CS 136",
		OU:    "1",
		Items: []portaltest.Item{{ID: "5", Title: "Notes", FileName: "notes.pdf"}},
	}
	server, session, home := loggedIn(t, course)
	server.SetErrorResponse("/content/enforced/", 404)

	listing := walkCourse(t, session, home, course.Name)
	_, err := newDownloader(t, server, session, storage.NewManager(t.TempDir()), &recorder{}, false).Download(context.Background(), listing)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestDownloadCancelled(t *testing.T) {
	server, session, home := loggedIn(t, algebra)
	listing := walkCourse(t, session, home, algebra.Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newDownloader(t, server, session, storage.NewManager(t.TempDir()), &recorder{}, false).Download(ctx, listing)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Downloaded)
}

func TestDownloadUnusableFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
	}{
		{"only a session suffix", "__&d2lSessionVal=1"},
		{"parent directory", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := portaltest.Course{
				Name:  "C",
				OU:    "1",
				Items: []portaltest.Item{{ID: "5", Title: "Notes", FileName: "notes.pdf", Disposition: tt.disposition, Body: []byte("notes")}},
			}
			server, session, home := loggedIn(t, course)
			out := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(out, "C"), 0755))

			rep := &recorder{}
			listing := walkCourse(t, session, home, course.Name)
			_, err := newDownloader(t, server, session, storage.NewManager(out), rep, false).Download(context.Background(), listing)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
			assert.Empty(t, rep.downloaded)
			assert.Empty(t, rep.skipped)
		})
	}
}

func TestDownloadDirectoryInTheWay(t *testing.T) {
	course := portaltest.Course{
		Name:  "C",
		OU:    "1",
		Items: []portaltest.Item{{ID: "5", Title: "Slides", FileName: "slides", Disposition: "slides", Body: []byte("deck")}},
	}
	server, session, home := loggedIn(t, course)
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "C", "slides"), 0755))

	rep := &recorder{}
	listing := walkCourse(t, session, home, course.Name)
	_, err := newDownloader(t, server, session, storage.NewManager(out), rep, false).Download(context.Background(), listing)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeStorage))
	assert.Empty(t, rep.skipped)
}

func TestDownloadTruncatedTransfer(t *testing.T) {
	course := portaltest.Course{
		Name:  "C",
		OU:    "1",
		Items: []portaltest.Item{{ID: "5", Title: "Notes", FileName: "notes.pdf", Body: []byte("%PDF-1."), Truncated: true}},
	}
	server, session, home := loggedIn(t, course)
	out := t.TempDir()

	rep := &recorder{}
	listing := walkCourse(t, session, home, course.Name)
	_, err := newDownloader(t, server, session, storage.NewManager(out), rep, false).Download(context.Background(), listing)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork), "got %v", err)
	assert.Empty(t, rep.downloaded)
	assert.Empty(t, snapshot(t, out), "no partial or temporary file is left")
}

func TestDownloadNeverOverwritesManifest(t *testing.T) {
	course := portaltest.Course{
		Name: "C",
		OU:   "1",
		Items: []portaltest.Item{
			{ID: "5", Title: "Notes", FileName: "notes.pdf", Body: []byte("notes")},
			{ID: "6", Title: "Odd", FileName: "odd.json", Disposition: metadata.ManifestFile, Body: []byte("not a manifest")},
		},
	}
	server, session, home := loggedIn(t, course)
	out := t.TempDir()

	rep := &recorder{}
	listing := walkCourse(t, session, home, course.Name)
	summary, err := newDownloader(t, server, session, storage.NewManager(out), rep, false).Download(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Ignored)

	manifest, err := metadata.Load(filepath.Join(out, "C"), course.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.pdf"}, manifestFiles(manifest))
}

func manifestFiles(m *metadata.Manifest) []string {
	var names []string
	for _, e := range m.Entries {
		names = append(names, e.FileName)
	}
	return names
}

// snapshot maps every file under root to its contents
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[path] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}
