// Package portal talks to a D2L learning portal over one cookie-carrying
// HTTP session.
//
// A Session fetches pages, follows links, submits forms and downloads files.
// Pages are parsed with goquery and expose their links, frames and forms;
// FindLink picks a link from anything implementing LinkSource. The
// Authenticator drives the portal's login form.
//
//	session, _ := portal.NewSession(portal.Options{Timeout: time.Minute})
//	auth := portal.NewAuthenticator(session, "https://learn.uwaterloo.ca/", true, log)
//	home, err := auth.Login(ctx, portal.Credentials{Username: u, Password: p})
//	link, ok := portal.FindLink(home, portal.TextContains("MATH 135"))
package portal
