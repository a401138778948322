package course

import (
	"context"
	"net/url"
	"time"

	errs "github.com/esdu/learn-scraper/pkg/errors"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/metadata"
	"github.com/esdu/learn-scraper/pkg/portal"
	"github.com/esdu/learn-scraper/pkg/storage"
)

// Reporter receives the outcome for every resolved item
type Reporter interface {
	Downloaded(course, path string, bytes int64)
	Skipped(course, path string)
	Planned(course, path string)
}

// Options configures a Downloader
type Options struct {
	// PortalURL supplies the scheme and host for preview URLs
	PortalURL *url.URL
	// DryRun resolves every item but writes nothing
	DryRun bool
	// NoManifest disables the per-course manifest
	NoManifest bool
}

// Summary counts what happened to a course's items
type Summary struct {
	Course     string
	Downloaded int
	Skipped    int
	Planned    int
	Ignored    int
	Bytes      int64
}

// Downloader fetches the files behind a course listing
type Downloader struct {
	session  *portal.Session
	store    *storage.Manager
	reporter Reporter
	opts     Options
	logger   logger.Logger
}

// NewDownloader creates a Downloader writing through store
func NewDownloader(session *portal.Session, store *storage.Manager, reporter Reporter, opts Options, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		session:  session,
		store:    store,
		reporter: reporter,
		opts:     opts,
		logger:   log.WithField("component", "downloader"),
	}
}

// Download fetches every item in listing in order. Items whose click handler
// is not a topic preview are ignored. Files already on disk are reported as
// skipped and left untouched. The first error stops the course.
func (d *Downloader) Download(ctx context.Context, listing *Listing) (*Summary, error) {
	summary := &Summary{Course: listing.CourseName}
	var manifest *metadata.Manifest

	for _, item := range listing.Items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		id, ok := item.ID()
		if !ok {
			d.logger.WithFields(map[string]interface{}{
				"course":  listing.CourseName,
				"title":   item.Title,
				"onclick": item.OnClick,
			}).Debug("not a topic preview link, ignored")
			summary.Ignored++
			continue
		}

		file, err := d.resolve(ctx, listing, id)
		if err != nil {
			return summary, err
		}

		name := CleanFilename(file.Name)
		switch name {
		case "", ".", "..":
			file.Close()
			return summary, errs.New(errs.ErrorTypeParsing, "item %s in %q has no usable filename (%q)", id, listing.CourseName, file.Name)
		case metadata.ManifestFile:
			file.Close()
			d.logger.WithFields(map[string]interface{}{
				"course": listing.CourseName,
				"item":   id,
			}).Warn("item would overwrite the course manifest, ignored")
			summary.Ignored++
			continue
		}

		path := d.store.Path(listing.CourseName, name)

		exists, err := d.store.Exists(path)
		if err != nil {
			file.Close()
			return summary, err
		}

		switch {
		case exists:
			file.Close()
			summary.Skipped++
			logger.LogItem(d.logger, listing.CourseName, id, path, true)
			d.reporter.Skipped(listing.CourseName, path)

		case d.opts.DryRun:
			file.Close()
			summary.Planned++
			d.reporter.Planned(listing.CourseName, path)

		default:
			if _, err := d.store.EnsureCourseDir(listing.CourseName); err != nil {
				file.Close()
				return summary, err
			}
			n, err := d.store.Save(path, file.Body)
			file.Close()
			if err != nil {
				return summary, err
			}

			summary.Downloaded++
			summary.Bytes += n
			logger.LogItem(d.logger, listing.CourseName, id, path, false)
			d.reporter.Downloaded(listing.CourseName, path, n)

			if !d.opts.NoManifest {
				if manifest == nil {
					if manifest, err = metadata.Load(d.store.CourseDir(listing.CourseName), listing.CourseName); err != nil {
						return summary, errs.Wrap(errs.ErrorTypeStorage, err, "course %q", listing.CourseName)
					}
				}
				manifest.CourseID = listing.CourseID
				manifest.Record(metadata.Entry{
					ItemID:       id,
					Title:        item.Title,
					FileName:     name,
					Bytes:        n,
					DownloadedAt: time.Now().UTC(),
				})
				if err := manifest.Save(d.store); err != nil {
					return summary, err
				}
			}
		}
	}

	return summary, nil
}

// resolve opens the file behind a topic: its preview page's first frame
func (d *Downloader) resolve(ctx context.Context, listing *Listing, itemID string) (*portal.File, error) {
	preview, err := d.session.Get(ctx, PreviewURL(d.opts.PortalURL, itemID, listing.CourseID))
	if err != nil {
		return nil, err
	}

	frames := preview.Frames()
	if len(frames) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, "preview of item %s in %q has no frame", itemID, listing.CourseName)
	}

	src, err := preview.Resolve(frames[0].Src)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "bad frame src %q", frames[0].Src)
	}

	return d.session.Open(ctx, src.String())
}
