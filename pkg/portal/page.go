package portal

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed HTML document together with the URL it was served from
// after redirects.
type Page struct {
	URL *url.URL
	doc *goquery.Document
}

// Link is an anchor on a page
type Link struct {
	Text  string
	Href  string
	Attrs map[string]string
}

// Attr returns the named attribute or ""
func (l Link) Attr(name string) string {
	return l.Attrs[name]
}

// HasClass reports whether the link's class list contains class
func (l Link) HasClass(class string) bool {
	for _, c := range strings.Fields(l.Attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

// Frame is an iframe or frame element
type Frame struct {
	Name string
	Src  string
}

// ParsePage parses an HTML document served from u
func ParsePage(u *url.URL, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Page{URL: u, doc: doc}, nil
}

// Title returns the document title
func (p *Page) Title() string {
	return normalizeSpace(p.doc.Find("title").First().Text())
}

// Links returns every anchor with an href, in document order
func (p *Page) Links() []Link {
	var links []Link
	p.doc.Find("a[href], area[href]").Each(func(_ int, sel *goquery.Selection) {
		link := Link{Attrs: attrs(sel)}
		link.Href = link.Attrs["href"]
		link.Text = normalizeSpace(sel.Text())
		if link.Text == "" {
			link.Text = normalizeSpace(sel.Find("img[alt]").AttrOr("alt", ""))
		}
		links = append(links, link)
	})
	return links
}

// Frames returns iframe and frame elements in document order
func (p *Page) Frames() []Frame {
	var frames []Frame
	p.doc.Find("iframe, frame").Each(func(_ int, sel *goquery.Selection) {
		frames = append(frames, Frame{
			Name: sel.AttrOr("name", ""),
			Src:  sel.AttrOr("src", ""),
		})
	})
	return frames
}

// Forms returns the page's forms in document order
func (p *Page) Forms() []*Form {
	var forms []*Form
	p.doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		forms = append(forms, parseForm(sel))
	})
	return forms
}

// Resolve resolves ref relative to the page URL
func (p *Page) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return p.URL.ResolveReference(u), nil
}

// LinkSource is anything that exposes links
type LinkSource interface {
	Links() []Link
}

// LinkMatcher selects links
type LinkMatcher func(Link) bool

// TextContains matches links whose text contains s literally
func TextContains(s string) LinkMatcher {
	return func(l Link) bool {
		return strings.Contains(l.Text, s)
	}
}

// TextMatches matches links whose text matches re
func TextMatches(re *regexp.Regexp) LinkMatcher {
	return func(l Link) bool {
		return re.MatchString(l.Text)
	}
}

// WithClass matches links carrying class
func WithClass(class string) LinkMatcher {
	return func(l Link) bool {
		return l.HasClass(class)
	}
}

// FindLink returns the first link in src accepted by match
func FindLink(src LinkSource, match LinkMatcher) (Link, bool) {
	for _, l := range src.Links() {
		if match(l) {
			return l, true
		}
	}
	return Link{}, false
}

// FilterLinks returns every link in src accepted by match, in order
func FilterLinks(src LinkSource, match LinkMatcher) []Link {
	var out []Link
	for _, l := range src.Links() {
		if match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Form is an HTML form with its successful controls
type Form struct {
	Action  string
	Method  string
	fields  []field
	buttons []field
}

type field struct {
	name  string
	value string
	kind  string
}

func parseForm(sel *goquery.Selection) *Form {
	form := &Form{
		Action: sel.AttrOr("action", ""),
		Method: strings.ToUpper(sel.AttrOr("method", http.MethodGet)),
	}
	if form.Method != http.MethodPost {
		form.Method = http.MethodGet
	}

	sel.Find("input, textarea, select, button").Each(func(_ int, in *goquery.Selection) {
		// Unnamed password inputs are kept so HasPasswordField sees them;
		// Values never submits them.
		name := in.AttrOr("name", "")
		isPassword := goquery.NodeName(in) == "input" && strings.EqualFold(in.AttrOr("type", ""), "password")
		if name == "" && !isPassword {
			return
		}
		if _, disabled := in.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(in) {
		case "textarea":
			form.fields = append(form.fields, field{name: name, value: in.Text(), kind: "textarea"})
		case "select":
			opt := in.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = in.Find("option").First()
			}
			if opt.Length() > 0 {
				form.fields = append(form.fields, field{name: name, value: opt.AttrOr("value", opt.Text()), kind: "select"})
			}
		case "button":
			kind := strings.ToLower(in.AttrOr("type", "submit"))
			if kind == "submit" {
				form.buttons = append(form.buttons, field{name: name, value: in.AttrOr("value", ""), kind: kind})
			}
		default:
			kind := strings.ToLower(in.AttrOr("type", "text"))
			value := in.AttrOr("value", "")
			switch kind {
			case "submit", "image":
				form.buttons = append(form.buttons, field{name: name, value: value, kind: kind})
			case "button", "reset", "file":
			case "checkbox", "radio":
				if _, checked := in.Attr("checked"); checked {
					if value == "" {
						value = "on"
					}
					form.fields = append(form.fields, field{name: name, value: value, kind: kind})
				}
			default:
				form.fields = append(form.fields, field{name: name, value: value, kind: kind})
			}
		}
	})

	return form
}

// Field returns the value of the first control named name
func (f *Form) Field(name string) (string, bool) {
	for _, fl := range f.fields {
		if fl.name == name {
			return fl.value, true
		}
	}
	return "", false
}

// Set assigns value to the first control named name. It reports false when
// the form has no such control.
func (f *Form) Set(name, value string) bool {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].value = value
			return true
		}
	}
	return false
}

// HasPasswordField reports whether the form contains a password input
func (f *Form) HasPasswordField() bool {
	for _, fl := range f.fields {
		if fl.kind == "password" {
			return true
		}
	}
	return false
}

// Button returns the name of the submit control to press: the one named
// preferred if present, otherwise the first submit control. ok is false when
// the form has no submit control at all.
func (f *Form) Button(preferred string) (name string, ok bool) {
	for _, b := range f.buttons {
		if b.name == preferred {
			return b.name, true
		}
	}
	if len(f.buttons) > 0 {
		return f.buttons[0].name, true
	}
	return "", false
}

// Values encodes the form's controls plus the named submit control
func (f *Form) Values(button string) url.Values {
	values := url.Values{}
	for _, fl := range f.fields {
		if fl.name == "" {
			continue
		}
		values.Add(fl.name, fl.value)
	}
	if button != "" {
		for _, b := range f.buttons {
			if b.name == button {
				if b.kind == "image" {
					values.Add(b.name+".x", "0")
					values.Add(b.name+".y", "0")
				} else {
					values.Add(b.name, b.value)
				}
				break
			}
		}
	}
	return values
}

func attrs(sel *goquery.Selection) map[string]string {
	out := make(map[string]string)
	if len(sel.Nodes) == 0 {
		return out
	}
	for _, a := range sel.Nodes[0].Attr {
		out[strings.ToLower(a.Key)] = a.Val
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
