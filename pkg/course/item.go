package course

import (
	"net/url"
	"regexp"

	"github.com/esdu/learn-scraper/pkg/portal"
)

// ItemClass marks downloadable topic links on the Print/Download page
const ItemClass = "D2LLink"

var (
	previewTopicPattern  = regexp.MustCompile(`^PreviewTopic\((.*), true\);$`)
	sessionSuffixPattern = regexp.MustCompile(`^(.*)__&.*$`)
)

// Item is a topic link listed on a course's Print/Download page
type Item struct {
	Title   string
	OnClick string
}

// ItemFromLink builds an Item from a topic link
func ItemFromLink(l portal.Link) Item {
	return Item{Title: l.Text, OnClick: l.Attr("onclick")}
}

// ID extracts the portal topic id from the item's click handler
func (i Item) ID() (string, bool) {
	return ExtractItemID(i.OnClick)
}

// ExtractItemID pulls the id out of "PreviewTopic(<id>, true);". Any other
// handler yields ok == false.
func ExtractItemID(onclick string) (string, bool) {
	m := previewTopicPattern.FindStringSubmatch(onclick)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PreviewURL is the topic preview page for an item in a course. Scheme and
// host come from the configured portal URL.
func PreviewURL(portalURL *url.URL, itemID, courseID string) string {
	u := url.URL{
		Scheme: portalURL.Scheme,
		Host:   portalURL.Host,
		Path:   "/d2l/lms/content/preview.d2l",
	}
	return u.String() + "?tId=" + itemID + "&ou=" + courseID
}

// CleanFilename drops a trailing "__&..." session suffix, keeping everything
// before the last "__&". Names without one are returned unchanged.
func CleanFilename(name string) string {
	if m := sessionSuffixPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
