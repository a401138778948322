package portal

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	errs "github.com/esdu/learn-scraper/pkg/errors"
)

// File is an opened resource. Body must be closed.
type File struct {
	URL    *url.URL
	Header http.Header
	Body   io.ReadCloser
	// Size is the Content-Length, or -1 when unknown
	Size int64
	// Name is the filename derived by FileName
	Name string
}

// Close releases the response body
func (f *File) Close() error {
	return f.Body.Close()
}

// networkBody tags read failures of a response body as network errors, so a
// connection dropped mid-transfer is not mistaken for a local write failure
type networkBody struct {
	io.ReadCloser
	url string
}

func (b *networkBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = errs.Wrap(errs.ErrorTypeNetwork, err, "reading %s", b.url)
	}
	return n, err
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[\x00-\x20<>:"/\\|?*]`)
	reservedFilenames   = regexp.MustCompile(`(?i)^(?:con|prn|aux|nul|com\d|lpt\d)$`)
)

// FileName derives a local filename for a resource. A Content-Disposition
// filename wins. Otherwise the last path segment of u is used, with ".html"
// appended when it has no extension and "?<query>" appended when u has a
// query. Characters that are unsafe in filenames become '_', so a session
// suffix such as "?_&d2lSessionVal=x" ends up as "__&d2lSessionVal=x".
func FileName(header http.Header, u *url.URL) string {
	name := ""
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			name = params["filename"]
			if i := strings.LastIndexAny(name, `/\`); i >= 0 {
				name = name[i+1:]
			}
		}
	}

	if name == "" {
		name = lastSegment(u)
		if !strings.Contains(name, ".") {
			name += ".html"
		}
		if u.RawQuery != "" {
			name += "?" + u.RawQuery
		}
	}

	if reservedFilenames.MatchString(name) {
		name = "_" + name
	}

	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

func lastSegment(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return "index.html"
	}
	seg := p[strings.LastIndex(p, "/")+1:]
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	return seg
}
