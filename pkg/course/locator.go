package course

import (
	"regexp"

	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/portal"
)

// Locate finds the link to a course on the portal landing page. The first
// link whose text contains name wins. With useRegex, name is compiled as a
// regular expression instead of being matched literally.
func Locate(landing portal.LinkSource, name string, useRegex bool) (portal.Link, error) {
	match := portal.TextContains(name)
	if useRegex {
		re, err := regexp.Compile(name)
		if err != nil {
			return portal.Link{}, errs.Wrap(errs.ErrorTypeConfig, err, "course name %q is not a valid pattern", name)
		}
		match = portal.TextMatches(re)
	}

	link, ok := portal.FindLink(landing, match)
	if !ok {
		return portal.Link{}, errs.New(errs.ErrorTypeNotFound, "course %q not found on the landing page", name)
	}
	return link, nil
}
