package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/esdu/learn-scraper/pkg/config"
	"github.com/esdu/learn-scraper/pkg/ui"
)

const exampleConfig = `# learnscraper configuration
#
# Environment variables override this file:
#   LEARNSCRAPER_USERNAME, LEARNSCRAPER_PASSWORD, LEARNSCRAPER_OUTPUT_DIR,
#   LEARNSCRAPER_PORTAL_URL, LEARNSCRAPER_REQUESTS_PER_MINUTE, LEARNSCRAPER_LOG_LEVEL

# Learn credentials. Leave password empty to use 'learnscraper auth login'.
username: "j2smith"
password: ""

# Course names exactly as the portal shows them on the home page
classes:
  - "MATH 135"
  - "AFM 131 / ARBUS 101"

# Where course folders are created. Defaults to ./downloads next to the binary.
dropbox_location: ""

portal:
  base_url: "https://learn.uwaterloo.ca/"
  timeout: 60s
  # 0 disables rate limiting
  requests_per_minute: 0
  # Fail the login when the home page still shows a password form
  verify_login: true
  # Treat each entry in classes as a regular expression
  regex_course_match: false

logging:
  # debug, info, warn, error, disabled
  level: "warn"
  # Optional JSON log file
  file: ""

ui:
  color: true
  tui: false
  notify: false
`

func newConfigCmd(g *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Manage learnscraper configuration.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (LEARNSCRAPER_*)
  - config.yml
  - Default values`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example config.yml",
		Long: `Create an example configuration file with every available option.

The file is created as ./config.yml unless --config names another path.
An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(g.configFile, cmd.OutOrStdout())
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging every source.

The password is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(g.configFile, cmd.OutOrStdout())
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(g.configFile, cmd.OutOrStdout())
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(path string, out io.Writer) error {
	if path == "" {
		path = config.DefaultFileName
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to start over)", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Set username and classes")
	fmt.Fprintln(out, "2. Run 'learnscraper auth login' or fill in password")
	fmt.Fprintln(out, "3. Run 'learnscraper config validate', then 'learnscraper fetch'")
	return nil
}

func runConfigShow(path string, out io.Writer) error {
	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	fmt.Fprintf(out, "\nDownloads go to: %s\n", cfg.OutputDir())
	return nil
}

func runConfigValidate(path string, out io.Writer) error {
	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	if warnings := cfg.Warnings(); len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		fmt.Fprintln(out)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Courses: %d\n", len(cfg.Classes))
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.OutputDir())
	fmt.Fprintf(out, "  Portal: %s\n", cfg.Portal.BaseURL)
	fmt.Fprintf(out, "  Rate limit: %d requests/minute\n", cfg.Portal.RequestsPerMinute)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
