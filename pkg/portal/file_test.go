package portal

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name        string
		rawURL      string
		disposition string
		want        string
	}{
		{
			name:   "plain path",
			rawURL: "https://learn.example.edu/content/enforced/6606-course/notes.pdf",
			want:   "notes.pdf",
		},
		{
			name:   "session suffix in query",
			rawURL: "https://learn.example.edu/content/enforced/6606-course/notes.pdf?_&d2lSessionVal=abc&ou=6606",
			want:   "notes.pdf__&d2lSessionVal=abc&ou=6606",
		},
		{
			name:   "escaped segment",
			rawURL: "https://learn.example.edu/content/Lecture%201%3A%20Intro.pdf",
			want:   "Lecture_1__Intro.pdf",
		},
		{
			name:   "no extension",
			rawURL: "https://learn.example.edu/d2l/lms/content/viewer",
			want:   "viewer.html",
		},
		{
			name:   "directory",
			rawURL: "https://learn.example.edu/content/",
			want:   "index.html",
		},
		{
			name:        "content disposition wins",
			rawURL:      "https://learn.example.edu/content/download?id=1",
			disposition: `attachment; filename="Assignment 1.docx"`,
			want:        "Assignment_1.docx",
		},
		{
			name:        "disposition path is stripped",
			rawURL:      "https://learn.example.edu/x",
			disposition: `attachment; filename="C:\\temp\\a2.pdf"`,
			want:        "a2.pdf",
		},
		{
			name:        "unparseable disposition falls back to url",
			rawURL:      "https://learn.example.edu/content/slides.pptx",
			disposition: `attachment; filename=`,
			want:        "slides.pptx",
		},
		{
			name:   "reserved device name",
			rawURL: "https://learn.example.edu/content/con",
			want:   "con.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatalf("bad url: %v", err)
			}
			header := http.Header{}
			if tt.disposition != "" {
				header.Set("Content-Disposition", tt.disposition)
			}
			assert.Equal(t, tt.want, FileName(header, u))
		})
	}
}
