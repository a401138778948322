// Package scraper runs a complete fetch of the configured courses.
//
// A Scraper owns the single portal Session for a run. It logs in once, then
// for each course name in config order locates the course on the landing
// page, walks to its Print/Download listing and downloads the listed files
// into <output_dir>/<course>/. Progress goes to a ui.Reporter; the first
// error stops the run and is returned with its kind intact:
//
//	s, err := scraper.New(cfg, ui.NewConsole(false, nil), scraper.Options{}, log)
//	if err != nil {
//	    return err
//	}
//	_, err = s.Run(ctx)
//
// When config.yml has no password, SetPasswordSource lets the run fall back
// to a stored credential (see package auth).
package scraper
