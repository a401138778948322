package portal

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/ratelimit"
)

// DefaultUserAgent is sent when Options.UserAgent is empty
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Options configures a Session
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   ratelimit.Limiter
	Logger    logger.Logger
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Session is the single cookie-carrying HTTP client shared by every step of a
// run. It is not safe for concurrent use.
type Session struct {
	client  *http.Client
	headers map[string]string
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// NewSession creates a Session with an empty cookie jar
func NewSession(opts Options) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create cookie jar")
	}

	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Session{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}, nil
}

// Cookies returns the cookies the jar would send to u
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	return s.client.Jar.Cookies(u)
}

// Get fetches rawURL and parses it as an HTML page
func (s *Session) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid URL %q", rawURL)
	}
	return s.fetchPage(req)
}

// Follow resolves link against the page it was found on and fetches it
func (s *Session) Follow(ctx context.Context, from *Page, link Link) (*Page, error) {
	target, err := from.Resolve(link.Href)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "bad link href %q", link.Href)
	}
	return s.Get(ctx, target.String())
}

// Submit sends form, which must belong to from, pressing the named submit
// control. An empty button submits without any control value.
func (s *Session) Submit(ctx context.Context, from *Page, form *Form, button string) (*Page, error) {
	action, err := from.Resolve(form.Action)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "bad form action %q", form.Action)
	}

	values := form.Values(button)

	var req *http.Request
	if form.Method == http.MethodGet {
		action.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, action.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to build form request")
	}
	req.Header.Set("Referer", from.URL.String())

	return s.fetchPage(req)
}

// Open fetches rawURL as an opaque resource. The body is left unread so the
// caller can decide from File.Name whether to stream it or just Close it.
func (s *Session) Open(ctx context.Context, rawURL string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid resource URL %q", rawURL)
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}

	return &File{
		URL:    resp.Request.URL,
		Header: resp.Header,
		Body:   &networkBody{ReadCloser: resp.Body, url: resp.Request.URL.String()},
		Size:   resp.ContentLength,
		Name:   FileName(resp.Header, resp.Request.URL),
	}, nil
}

func (s *Session) fetchPage(req *http.Request) (*Page, error) {
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page, err := ParsePage(resp.Request.URL, resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse %s", resp.Request.URL)
	}
	return page, nil
}

// do performs req with the session headers. Responses with status >= 400 are
// closed and returned as errors tagged by status.
func (s *Session) do(req *http.Request) (*http.Response, error) {
	if err := s.limiter.Wait(req.Context()); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "%s %s", req.Method, req.URL)
	}

	for key, value := range s.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.WithError(err).WarnWithFields("portal request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "%s %s", req.Method, req.URL)
	}

	logger.LogRequest(s.logger, req.Method, resp.Request.URL.String(), resp.StatusCode, elapsed)

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		kind := errs.TypeForStatus(resp.StatusCode)
		return nil, errs.WithCode(kind, resp.StatusCode, "%s %s returned %s", req.Method, req.URL, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}
