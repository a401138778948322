package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/esdu/learn-scraper/pkg/auth"
	"github.com/esdu/learn-scraper/pkg/config"
	"github.com/esdu/learn-scraper/pkg/course"
	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/portal"
	"github.com/esdu/learn-scraper/pkg/ratelimit"
	"github.com/esdu/learn-scraper/pkg/storage"
	"github.com/esdu/learn-scraper/pkg/ui"
)

// PasswordSource looks up a stored password when the config has none
type PasswordSource interface {
	PasswordFor(username string) (string, error)
}

// Options adjusts a run beyond what the config file says
type Options struct {
	// DryRun resolves every file but writes nothing
	DryRun bool
	// NoManifest skips the per-course manifest
	NoManifest bool
	// Only restricts the run to configured courses whose name contains one
	// of these, ignoring case
	Only []string
	// Transport replaces the HTTP transport, for tests
	Transport http.RoundTripper
}

// Result is what a finished run did
type Result struct {
	Courses []*course.Summary
	Elapsed time.Duration
}

// Scraper runs the whole fetch: log in once, then walk and download every
// configured course in order. The first error ends the run.
type Scraper struct {
	config    *config.Config
	reporter  ui.Reporter
	passwords PasswordSource
	opts      Options
	logger    logger.Logger
}

// New creates a Scraper. reporter receives progress; it must not be nil.
func New(cfg *config.Config, reporter ui.Reporter, opts Options, log logger.Logger) (*Scraper, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrorTypeConfig, "no configuration")
	}
	if reporter == nil {
		return nil, errors.New("scraper: nil reporter")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		config:   cfg,
		reporter: reporter,
		opts:     opts,
		logger:   log.WithField("component", "scraper"),
	}, nil
}

// SetPasswordSource sets where a missing config password is looked up
func (s *Scraper) SetPasswordSource(src PasswordSource) {
	s.passwords = src
}

// Courses returns the configured course names this run will fetch, in order
func (s *Scraper) Courses() []string {
	return SelectCourses(s.config.Classes, s.opts.Only)
}

// SelectCourses keeps the classes whose name contains one of only, ignoring
// case. An empty only keeps every class.
func SelectCourses(classes, only []string) []string {
	if len(only) == 0 {
		return classes
	}

	var selected []string
	for _, name := range classes {
		for _, o := range only {
			if strings.Contains(strings.ToLower(name), strings.ToLower(o)) {
				selected = append(selected, name)
				break
			}
		}
	}
	return selected
}

// Run performs the fetch. Failures are reported to the reporter and returned.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	s.reporter.Start()

	result, err := s.run(ctx)
	result.Elapsed = time.Since(start)
	if err != nil {
		s.logger.WithError(err).ErrorWithFields("run aborted", map[string]interface{}{
			"kind": string(errs.TypeOf(err)),
		})
		s.reporter.Failed(err)
		return result, err
	}

	s.reporter.Done(result.Elapsed)
	return result, nil
}

func (s *Scraper) run(ctx context.Context) (*Result, error) {
	result := &Result{}

	courses := s.Courses()
	if len(s.opts.Only) > 0 && len(courses) == 0 {
		return result, errs.New(errs.ErrorTypeNotFound, "no configured course matches %s", strings.Join(s.opts.Only, ", "))
	}

	portalURL, err := url.Parse(s.config.Portal.BaseURL)
	if err != nil {
		return result, errs.Wrap(errs.ErrorTypeConfig, err, "bad portal URL")
	}

	session, err := portal.NewSession(portal.Options{
		Timeout:   s.config.Portal.Timeout,
		UserAgent: s.config.Portal.UserAgent,
		Limiter:   ratelimit.PerMinute(s.config.Portal.RequestsPerMinute),
		Logger:    s.logger,
		Transport: s.opts.Transport,
	})
	if err != nil {
		return result, err
	}

	s.reporter.LoggingIn(s.config.Username)
	authenticator := portal.NewAuthenticator(session, s.config.Portal.BaseURL, s.config.Portal.VerifyLogin, s.logger)
	home, err := authenticator.Login(ctx, portal.Credentials{
		Username: s.config.Username,
		Password: s.password(),
	})
	if err != nil {
		return result, err
	}

	store := storage.NewManager(s.config.OutputDir())
	walker := course.NewWalker(session, s.logger)
	downloader := course.NewDownloader(session, store, s.reporter, course.Options{
		PortalURL:  portalURL,
		DryRun:     s.opts.DryRun,
		NoManifest: s.opts.NoManifest,
	}, s.logger)

	s.logger.InfoWithFields("fetching courses", map[string]interface{}{
		"courses":    len(courses),
		"output_dir": store.GetOutputDir(),
		"dry_run":    s.opts.DryRun,
	})

	for _, name := range courses {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		summary, err := s.fetchCourse(ctx, home, walker, downloader, name)
		if summary != nil {
			result.Courses = append(result.Courses, summary)
		}
		if err != nil {
			return result, fmt.Errorf("course %q: %w", name, err)
		}
	}

	return result, nil
}

func (s *Scraper) fetchCourse(ctx context.Context, home *portal.Page, walker *course.Walker, downloader *course.Downloader, name string) (*course.Summary, error) {
	s.reporter.CourseStarted(name)

	link, err := course.Locate(home, name, s.config.Portal.RegexCourseMatch)
	if err != nil {
		return nil, err
	}

	listing, err := walker.Walk(ctx, home, name, link)
	if err != nil {
		return nil, err
	}

	summary, err := downloader.Download(ctx, listing)
	if err != nil {
		return summary, err
	}

	s.logger.InfoWithFields("course fetched", map[string]interface{}{
		"course":     name,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"ignored":    summary.Ignored,
		"bytes":      summary.Bytes,
	})
	s.reporter.CourseFinished(name)
	return summary, nil
}

// password returns the configured password, falling back to the password
// source. An empty result is submitted as is and fails at login.
func (s *Scraper) password() string {
	if s.config.Password != "" || s.passwords == nil || s.config.Username == "" {
		return s.config.Password
	}

	password, err := s.passwords.PasswordFor(s.config.Username)
	if err != nil {
		if !errors.Is(err, auth.ErrCredentialsNotFound) {
			s.logger.WithError(err).Warn("credential store lookup failed")
		}
		return ""
	}
	s.logger.Debug("using stored password")
	return password
}
