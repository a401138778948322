package course

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/esdu/learn-scraper/pkg/portal"
)

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		onclick string
		wantID  string
		wantOK  bool
	}{
		{"PreviewTopic(12345, true);", "12345", true},
		{"PreviewTopic(7, true);", "7", true},
		{"SomethingElse(12345, true);", "", false},
		{"PreviewTopic(12345, false);", "", false},
		{"PreviewTopic(12345, true); return false;", "", false},
		{" PreviewTopic(12345, true);", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.onclick, func(t *testing.T) {
			id, ok := ExtractItemID(tt.onclick)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestItemFromLink(t *testing.T) {
	item := ItemFromLink(portal.Link{
		Text:  "Lecture 1",
		Attrs: map[string]string{"class": "D2LLink", "onclick": "PreviewTopic(42, true);"},
	})

	assert.Equal(t, "Lecture 1", item.Title)
	id, ok := item.ID()
	assert.True(t, ok)
	assert.Equal(t, "42", id)
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"notes.pdf__&d2lSessionVal=abc&ou=6606", "notes.pdf"},
		{"notes.pdf", "notes.pdf"},
		{"a__&b__&c", "a__&b"},
		{"under_score_&amp.pdf", "under_score_&amp.pdf"},
		{"__&only-suffix", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilename(tt.in))
		})
	}
}

func TestPreviewURL(t *testing.T) {
	base, _ := url.Parse("https://learn.uwaterloo.ca/")
	assert.Equal(t,
		"https://learn.uwaterloo.ca/d2l/lms/content/preview.d2l?tId=12345&ou=6606",
		PreviewURL(base, "12345", "6606"))

	local, _ := url.Parse("http://127.0.0.1:8080/some/path")
	assert.Equal(t,
		"http://127.0.0.1:8080/d2l/lms/content/preview.d2l?tId=1&ou=2",
		PreviewURL(local, "1", "2"))
}
