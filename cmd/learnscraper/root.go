package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/esdu/learn-scraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	verbose    bool
}

// reportedError marks an error the reporter has already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// newRootCmd builds the command tree. Running the root command without a
// subcommand fetches, like "learnscraper fetch".
func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	fetch := &fetchOptions{}

	rootCmd := &cobra.Command{
		Use:   "learnscraper",
		Short: "Download course files from a D2L Learn portal",
		Long: `learnscraper logs into a D2L Learn portal and downloads every file listed
on the Print/Download page of each course named in config.yml.

Files land in <dropbox_location>/<course>/ and are never overwritten: a file
that already exists is reported as skipped.

Configuration is read from (highest priority first):
  - Command line flags
  - LEARNSCRAPER_* environment variables, also from .env
  - config.yml
  - Default values`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				ui.SetColor(false)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, g, fetch)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file (default is ./config.yml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.SetVersionTemplate(`learnscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	addFetchFlags(rootCmd, fetch)
	rootCmd.AddCommand(newFetchCmd(g))
	rootCmd.AddCommand(newAuthCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))

	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		ui.PrintFailure(err)
	}
	return 1
}
