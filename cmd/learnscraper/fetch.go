package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/esdu/learn-scraper/pkg/auth"
	"github.com/esdu/learn-scraper/pkg/config"
	"github.com/esdu/learn-scraper/pkg/logger"
	"github.com/esdu/learn-scraper/pkg/scraper"
	"github.com/esdu/learn-scraper/pkg/ui"
	"github.com/esdu/learn-scraper/pkg/ui/tui"
)

// fetchOptions are the flags of the fetch command
type fetchOptions struct {
	output     string
	portalURL  string
	only       []string
	rpm        int
	dryRun     bool
	noManifest bool
	regex      bool
	useTUI     bool
	notify     bool
}

func newFetchCmd(g *globalOptions) *cobra.Command {
	o := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the files of every configured course",
		Long: `Log in once, then for each course in config.yml follow Content and
Print/Download and save every listed file under <dropbox_location>/<course>/.

Each file prints one line:
  ✓ <path>   the file was downloaded
  ★ <path>   the file already exists and was skipped

The first error stops the run and exits with status 1.`,
		Example: `  # Fetch everything in ./config.yml
  learnscraper fetch

  # Only the courses whose name contains "MATH", without writing anything
  learnscraper fetch --only MATH --dry-run

  # Treat the course names in config.yml as regular expressions
  learnscraper fetch --regex

  # Full-screen progress
  learnscraper fetch --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, g, o)
		},
	}
	addFetchFlags(cmd, o)
	return cmd
}

func addFetchFlags(cmd *cobra.Command, o *fetchOptions) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "download directory (overrides dropbox_location)")
	cmd.Flags().StringVar(&o.portalURL, "portal-url", "", "portal root URL")
	cmd.Flags().StringSliceVar(&o.only, "only", nil, "only fetch configured courses whose name contains this (repeatable)")
	cmd.Flags().IntVar(&o.rpm, "rate-limit", 0, "maximum portal requests per minute, 0 for no limit")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "resolve every file but write nothing")
	cmd.Flags().BoolVar(&o.noManifest, "no-manifest", false, "do not record downloads in .learnscraper.json")
	cmd.Flags().BoolVar(&o.regex, "regex", false, "match course names as regular expressions")
	cmd.Flags().BoolVar(&o.useTUI, "tui", false, "use the full-screen progress view")
	cmd.Flags().BoolVar(&o.notify, "notify", false, "send a desktop notification when the run ends")
}

// flagMap collects the flags the user actually set, for config.Load
func flagMap(cmd *cobra.Command, g *globalOptions, o *fetchOptions) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if o.output != "" {
		flags["output"] = o.output
	}
	if o.portalURL != "" {
		flags["portal-url"] = o.portalURL
	}
	if changed("rate-limit") {
		flags["requests-per-minute"] = o.rpm
	}
	if changed("regex") {
		flags["regex"] = o.regex
	}
	if changed("tui") {
		flags["tui"] = o.useTUI
	}
	if changed("notify") {
		flags["notify"] = o.notify
	}
	if g.noColor {
		flags["color"] = false
	}
	if g.logFile != "" {
		flags["log-file"] = g.logFile
	}
	switch {
	case g.logLevel != "":
		flags["log-level"] = g.logLevel
	case g.verbose:
		flags["log-level"] = "debug"
	}
	return flags
}

func runFetch(cmd *cobra.Command, g *globalOptions, o *fetchOptions) error {
	cfg, err := config.Load(g.configFile, flagMap(cmd, g, o))
	if err != nil {
		return err
	}
	if !cfg.UI.Color {
		ui.SetColor(false)
	}
	for _, w := range cfg.Warnings() {
		ui.PrintWarning(w)
	}

	// The full-screen view owns the terminal, so logs only go to the log file
	var console io.Writer = os.Stderr
	if cfg.UI.TUI {
		console = io.Discard
	}
	log, err := logger.NewWithWriter(&cfg.Logging, console)
	if err != nil {
		return err
	}
	log.InfoWithFields("learnscraper starting", map[string]interface{}{
		"version": version,
		"courses": len(cfg.Classes),
	})

	var passwords scraper.PasswordSource
	if cfg.Password == "" {
		if manager, err := auth.NewManager(); err == nil {
			passwords = manager
		} else {
			log.WithError(err).Warn("credential store unavailable")
		}
	}

	var notifier *ui.Notifier
	if cfg.UI.Notify {
		notifier = ui.NewNotifier()
	}

	opts := scraper.Options{
		DryRun:     o.dryRun,
		NoManifest: o.noManifest,
		Only:       o.only,
	}

	run := func(ctx context.Context, reporter ui.Reporter) error {
		s, err := scraper.New(cfg, reporter, opts, log)
		if err != nil {
			return err
		}
		if passwords != nil {
			s.SetPasswordSource(passwords)
		}
		_, err = s.Run(ctx)
		return err
	}

	if cfg.UI.TUI {
		view := tui.New(scraper.SelectCourses(cfg.Classes, o.only))
		if err := view.Run(cmd.Context(), run); err != nil {
			notifier.SendError("learnscraper", err.Error())
			return err
		}
		notifier.SendSuccess("learnscraper", "Done!")
		return nil
	}

	if err := run(cmd.Context(), ui.NewConsole(g.verbose, notifier)); err != nil {
		return &reportedError{err: err}
	}
	return nil
}
