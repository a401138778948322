package portal

import (
	"context"

	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
)

// Form control names on the portal's login form
const (
	UsernameField = "username"
	PasswordField = "password"
	SubmitButton  = "submit"
)

// Credentials are the portal account details
type Credentials struct {
	Username string
	Password string
}

// Authenticator logs a Session into the portal
type Authenticator struct {
	session *Session
	baseURL string
	verify  bool
	logger  logger.Logger
}

// NewAuthenticator creates an Authenticator for the portal rooted at baseURL.
// With verify set, a landing page that still asks for a password is treated
// as a rejected login.
func NewAuthenticator(session *Session, baseURL string, verify bool, log logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		session: session,
		baseURL: baseURL,
		verify:  verify,
		logger:  log.WithField("component", "auth"),
	}
}

// Login submits creds through the first form on the portal root page and
// returns the page the portal lands on.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (*Page, error) {
	a.logger.WithField("username", creds.Username).Debug("fetching login page")

	page, err := a.session.Get(ctx, a.baseURL)
	if err != nil {
		return nil, err
	}

	forms := page.Forms()
	if len(forms) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "no login form on %s", page.URL)
	}
	form := forms[0]

	if !form.Set(UsernameField, creds.Username) {
		return nil, errs.New(errs.ErrorTypeParsing, "login form has no %q field", UsernameField)
	}
	if !form.Set(PasswordField, creds.Password) {
		return nil, errs.New(errs.ErrorTypeParsing, "login form has no %q field", PasswordField)
	}

	button, _ := form.Button(SubmitButton)
	landing, err := a.session.Submit(ctx, page, form, button)
	if err != nil {
		return nil, err
	}

	if a.verify && StillAtLogin(landing) {
		return nil, errs.New(errs.ErrorTypeAuth, "login rejected for %q", creds.Username)
	}

	a.logger.WithField("url", landing.URL.String()).Debug("logged in")
	return landing, nil
}

// StillAtLogin reports whether page still offers a password form
func StillAtLogin(page *Page) bool {
	for _, f := range page.Forms() {
		if f.HasPasswordField() {
			return true
		}
	}
	return false
}
