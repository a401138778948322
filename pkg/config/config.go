package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "github.com/esdu/learn-scraper/pkg/errors"
)

// DefaultFileName is the config file looked up in the working directory
const DefaultFileName = "config.yml"

// Config holds all configuration options for the scraper. The top-level keys
// mirror the historical config.yml layout.
type Config struct {
	Username        string   `yaml:"username" json:"username"`
	Password        string   `yaml:"password" json:"password"`
	Classes         []string `yaml:"classes" json:"classes"`
	DropboxLocation string   `yaml:"dropbox_location,omitempty" json:"dropbox_location,omitempty"`

	// Portal connection settings
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output preferences
	UI UIConfig `yaml:"ui" json:"ui"`
}

// PortalConfig holds settings for talking to the learning portal
type PortalConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	VerifyLogin       bool          `yaml:"verify_login" json:"verify_login"`
	RegexCourseMatch  bool          `yaml:"regex_course_match" json:"regex_course_match"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	Color  bool `yaml:"color" json:"color"`
	TUI    bool `yaml:"tui" json:"tui"`
	Notify bool `yaml:"notify" json:"notify"`
}

// installDir resolves the directory downloads default into. Tests replace it.
var installDir = func() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:           "https://learn.uwaterloo.ca/",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:           60 * time.Second,
			RequestsPerMinute: 0,
			VerifyLogin:       true,
			RegexCourseMatch:  false,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		UI: UIConfig{
			Color: true,
		},
	}
}

// OutputDir returns the directory course folders are created in. It falls back
// to a downloads folder next to the executable when dropbox_location is unset.
func (c *Config) OutputDir() string {
	if c.DropboxLocation != "" {
		return c.DropboxLocation
	}
	return filepath.Join(installDir(), "downloads")
}

// LoadFromFile loads configuration from a YAML file. Unlike the ambient
// sections, the file itself is required.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return errs.New(errs.ErrorTypeConfig, "no %s found in the working directory", DefaultFileName)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to parse config file %s", path)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	locations := []string{
		DefaultFileName,
		"config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "learnscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".config", "learnscraper", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("LEARNSCRAPER_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv("LEARNSCRAPER_PASSWORD"); password != "" {
		c.Password = password
	}
	if outputDir := os.Getenv("LEARNSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.DropboxLocation = outputDir
	}
	if baseURL := os.Getenv("LEARNSCRAPER_PORTAL_URL"); baseURL != "" {
		c.Portal.BaseURL = baseURL
	}
	if rpm := os.Getenv("LEARNSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return errs.Wrap(errs.ErrorTypeConfig, err, "invalid LEARNSCRAPER_REQUESTS_PER_MINUTE")
		}
		c.Portal.RequestsPerMinute = val
	}
	if logLevel := os.Getenv("LEARNSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.DropboxLocation = outputDir
	}
	if baseURL, ok := flags["portal-url"].(string); ok && baseURL != "" {
		c.Portal.BaseURL = baseURL
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok {
		c.Portal.RequestsPerMinute = rpm
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if regex, ok := flags["regex"].(bool); ok {
		c.Portal.RegexCourseMatch = regex
	}
	if tui, ok := flags["tui"].(bool); ok {
		c.UI.TUI = tui
	}
	if color, ok := flags["color"].(bool); ok {
		c.UI.Color = color
	}
	if notify, ok := flags["notify"].(bool); ok {
		c.UI.Notify = notify
	}
}

// Validate checks the ambient sections. Credentials and the course list are
// deliberately not checked here; see Warnings.
func (c *Config) Validate() error {
	var errList []error

	if c.Portal.BaseURL == "" {
		errList = append(errList, errors.New("portal base URL is required"))
	} else if u, err := url.Parse(c.Portal.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errList = append(errList, fmt.Errorf("portal base URL %q is not an absolute URL", c.Portal.BaseURL))
	}
	if c.Portal.Timeout <= 0 {
		errList = append(errList, errors.New("portal timeout must be positive"))
	}
	if c.Portal.RequestsPerMinute < 0 {
		errList = append(errList, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errList = append(errList, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errList) > 0 {
		return errs.Wrap(errs.ErrorTypeConfig, errors.Join(errList...), "invalid configuration")
	}

	return nil
}

// Warnings lists settings that are accepted but will make a run fail later
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Username == "" {
		warnings = append(warnings, "username is not set")
	}
	if c.Password == "" {
		warnings = append(warnings, "password is not set (a stored credential will be used if present)")
	}
	if len(c.Classes) == 0 {
		warnings = append(warnings, "classes is empty, nothing will be fetched")
	}
	return warnings
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy safe for display
func (c *Config) Masked() *Config {
	masked := *c
	masked.Classes = append([]string(nil), c.Classes...)
	if masked.Password != "" {
		masked.Password = "********"
	}
	return &masked
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".learnscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, err
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, err
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
