package course

import (
	"context"

	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/portal"
)

// Navigation link texts on a course page
const (
	ContentLinkText  = "Content"
	DownloadLinkText = "Print/Download"
)

// Listing is the outcome of walking one course
type Listing struct {
	CourseName string
	CourseID   string
	Items      []Item
}

// Walker navigates from a course link to its Print/Download listing
type Walker struct {
	session *portal.Session
	logger  logger.Logger
}

// NewWalker creates a Walker over session
func NewWalker(session *portal.Session, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{session: session, logger: log.WithField("component", "walker")}
}

// Walk follows courseLink from the landing page, then the Content and
// Print/Download links, and lists the topic links found there.
func (w *Walker) Walk(ctx context.Context, landing *portal.Page, courseName string, courseLink portal.Link) (*Listing, error) {
	log := w.logger.WithField("course", courseName)

	coursePage, err := w.session.Follow(ctx, landing, courseLink)
	if err != nil {
		return nil, err
	}

	contentPage, err := w.follow(ctx, coursePage, courseName, ContentLinkText)
	if err != nil {
		return nil, err
	}

	downloadPage, err := w.follow(ctx, contentPage, courseName, DownloadLinkText)
	if err != nil {
		return nil, err
	}

	courseID := downloadPage.URL.Query().Get("ou")
	if courseID == "" {
		return nil, errs.New(errs.ErrorTypeParsing, "no ou parameter in %s", downloadPage.URL)
	}

	listing := &Listing{CourseName: courseName, CourseID: courseID}
	for _, l := range portal.FilterLinks(downloadPage, portal.WithClass(ItemClass)) {
		listing.Items = append(listing.Items, ItemFromLink(l))
	}

	log.DebugWithFields("listed course items", map[string]interface{}{
		"course_id": courseID,
		"items":     len(listing.Items),
	})
	return listing, nil
}

func (w *Walker) follow(ctx context.Context, page *portal.Page, courseName, text string) (*portal.Page, error) {
	link, ok := portal.FindLink(page, portal.TextContains(text))
	if !ok {
		return nil, errs.New(errs.ErrorTypeParsing, "no %q link for course %q", text, courseName)
	}
	return w.session.Follow(ctx, page, link)
}
