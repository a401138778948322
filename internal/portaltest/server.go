// Package portaltest runs an in-process imitation of a D2L portal for tests.
package portaltest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// SessionCookie is the cookie set on a successful login
const SessionCookie = "d2lSessionVal"

const loginAction = "/d2l/lp/auth/login/login.d2l"

// Item is one downloadable topic in a course
type Item struct {
	ID       string
	Title    string
	FileName string
	Body     []byte
	// OnClick overrides the generated PreviewTopic(...) handler
	OnClick string
	// Disposition, when set, is sent as the Content-Disposition filename
	Disposition string
	// NoFrame makes the preview page render without an iframe
	NoFrame bool
	// Truncated makes the file endpoint drop the connection partway
	// through the body
	Truncated bool
}

// Course is one enrolled course
type Course struct {
	Name  string
	OU    string
	Items []Item
	// HideContent and HideDownload drop the navigation links
	HideContent  bool
	HideDownload bool
}

// Server imitates the pages a scraper walks through on a D2L portal
type Server struct {
	server   *httptest.Server
	username string
	password string

	mu             sync.RWMutex
	courses        []Course
	errorResponses map[string]int

	requestCount  int32
	downloadCount int32
}

// New starts a portal accepting the given credentials
func New(username, password string) *Server {
	s := &Server{
		username:       username,
		password:       password,
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc(loginAction, s.handleLogin)
	mux.HandleFunc("/d2l/home", s.requireSession(s.handleHome))
	mux.HandleFunc("/d2l/home/", s.requireSession(s.handleCourseHome))
	mux.HandleFunc("/d2l/le/content/", s.requireSession(s.handleContent))
	mux.HandleFunc("/d2l/lms/content/print/print_download.d2l", s.requireSession(s.handlePrintDownload))
	mux.HandleFunc("/d2l/lms/content/preview.d2l", s.requireSession(s.handlePreview))
	mux.HandleFunc("/content/enforced/", s.requireSession(s.handleFile))

	s.server = httptest.NewServer(s.count(mux))
	return s
}

// URL is the portal root, with a trailing slash
func (s *Server) URL() string {
	return s.server.URL + "/"
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// AddCourse enrols the account in c
func (s *Server) AddCourse(c Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append(s.courses, c)
}

// SetErrorResponse makes requests whose path has the given prefix fail with code
func (s *Server) SetErrorResponse(pathPrefix string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[pathPrefix] = code
}

// RequestCount is the number of requests served so far
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

// DownloadCount is the number of file bodies served so far
func (s *Server) DownloadCount() int {
	return int(atomic.LoadInt32(&s.downloadCount))
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.requestCount, 1)

		s.mu.RLock()
		var code int
		for prefix, c := range s.errorResponses {
			if strings.HasPrefix(r.URL.Path, prefix) {
				code = c
			}
		}
		s.mu.RUnlock()

		if code > 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err != nil || c.Value != s.token() {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) token() string {
	return "sess-" + url.QueryEscape(s.username)
}

func (s *Server) course(ou string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.OU == ou {
			return c, true
		}
	}
	return Course{}, false
}

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body>%s</body></html>",
		html.EscapeString(title), body)
}

func loginForm(message string) string {
	var b strings.Builder
	if message != "" {
		fmt.Fprintf(&b, `<p class="error">%s</p>`, html.EscapeString(message))
	}
	fmt.Fprintf(&b, `<form method="post" action="%s">`, loginAction)
	b.WriteString(`<input type="hidden" name="loginPath" value="/d2l/login">`)
	b.WriteString(`<input type="text" name="username">`)
	b.WriteString(`<input type="password" name="password">`)
	b.WriteString(`<button type="submit" name="submit" value="Log In">Log In</button>`)
	b.WriteString(`</form>`)
	return b.String()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writePage(w, "Login - Learn", loginForm(""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("submit") == "" || r.PostForm.Get("loginPath") == "" {
		http.Error(w, "incomplete form", http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("username") != s.username || r.PostForm.Get("password") != s.password {
		// D2L answers a bad login with the login page again, not an error status
		writePage(w, "Login - Learn", loginForm("Invalid username or password."))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: s.token(), Path: "/", HttpOnly: true})
	http.Redirect(w, r, "/d2l/home", http.StatusFound)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	b.WriteString(`<nav><a href="/d2l/home">Home</a> <a href="/d2l/lp/logout">Log Out</a></nav><ul>`)
	for _, c := range s.courses {
		fmt.Fprintf(&b, `<li><a href="/d2l/home/%s">%s</a></li>`, c.OU, html.EscapeString(c.Name))
	}
	b.WriteString(`</ul>`)
	writePage(w, "Homepage - Learn", b.String())
}

func (s *Server) handleCourseHome(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(strings.TrimPrefix(r.URL.Path, "/d2l/home/"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	body := `<nav><a href="/d2l/home">My Home</a>`
	if !c.HideContent {
		body += fmt.Sprintf(` <a href="/d2l/le/content/%s/Home">Content</a>`, c.OU)
	}
	body += ` <a href="/d2l/lms/grades/my_grades/main.d2l?ou=` + c.OU + `">Grades</a></nav>`
	writePage(w, c.Name, body)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/d2l/le/content/")
	ou := strings.SplitN(rest, "/", 2)[0]
	c, ok := s.course(ou)
	if !ok {
		http.NotFound(w, r)
		return
	}

	body := `<h1>Table of Contents</h1>`
	if !c.HideDownload {
		body += fmt.Sprintf(`<a href="/d2l/lms/content/print/print_download.d2l?ou=%s">Print/Download</a>`, c.OU)
	}
	writePage(w, "Content - "+c.Name, body)
}

func (s *Server) handlePrintDownload(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(r.URL.Query().Get("ou"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var b strings.Builder
	b.WriteString(`<table>`)
	b.WriteString(`<tr><td><a class="D2LLink" href="javascript://" onclick="ToggleModule(1); return false;">Week 1</a></td></tr>`)
	for _, item := range c.Items {
		onclick := item.OnClick
		if onclick == "" {
			onclick = fmt.Sprintf("PreviewTopic(%s, true);", item.ID)
		}
		fmt.Fprintf(&b, `<tr><td><a class="D2LLink topic" href="javascript://" onclick="%s">%s</a></td></tr>`,
			html.EscapeString(onclick), html.EscapeString(item.Title))
	}
	b.WriteString(`</table>`)
	writePage(w, "Print/Download - "+c.Name, b.String())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, ok := s.course(q.Get("ou"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	for _, item := range c.Items {
		if item.ID != q.Get("tId") {
			continue
		}
		if item.NoFrame {
			writePage(w, item.Title, `<p>This topic cannot be previewed.</p>`)
			return
		}
		src := fmt.Sprintf("/content/enforced/%s-course/%s?_&%s=%s&ou=%s",
			c.OU, url.PathEscape(item.FileName), SessionCookie, s.token(), c.OU)
		writePage(w, item.Title, fmt.Sprintf(`<iframe name="topic" src="%s"></iframe>`, html.EscapeString(src)))
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/content/enforced/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	ou := strings.SplitN(parts[0], "-", 2)[0]
	c, ok := s.course(ou)
	if !ok {
		http.NotFound(w, r)
		return
	}

	for _, item := range c.Items {
		if item.FileName != parts[1] {
			continue
		}
		if item.Disposition != "" {
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, item.Disposition))
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		atomic.AddInt32(&s.downloadCount, 1)
		if item.Truncated {
			truncate(w, item.Body)
			return
		}
		w.Write(item.Body)
		return
	}
	http.NotFound(w, r)
}

// truncate promises more bytes than body holds, sends body and closes the
// connection
func truncate(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Length", fmt.Sprint(len(body)+100000))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}
