package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/esdu/learn-scraper/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Portal.BaseURL != "https://learn.uwaterloo.ca/" {
		t.Errorf("Expected default portal URL, got %s", config.Portal.BaseURL)
	}

	if config.Portal.Timeout != 60*time.Second {
		t.Errorf("Expected default timeout to be 60s, got %s", config.Portal.Timeout)
	}

	if !config.Portal.VerifyLogin {
		t.Error("Expected login verification to be enabled by default")
	}

	if config.Portal.RegexCourseMatch {
		t.Error("Expected literal course matching by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
username: j2smith
password: hunter2
classes:
  - MATH 135
  - AFM 131 / ARBUS 101
dropbox_location: /tmp/learn
favourite_colour: blue
`)

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "j2smith", config.Username)
	assert.Equal(t, "hunter2", config.Password)
	assert.Equal(t, []string{"MATH 135", "AFM 131 / ARBUS 101"}, config.Classes)
	assert.Equal(t, "/tmp/learn", config.OutputDir())
	// Ambient defaults survive a file that doesn't mention them
	assert.Equal(t, 60*time.Second, config.Portal.Timeout)
}

func TestLoadFromFileMissingKeys(t *testing.T) {
	path := writeConfig(t, "classes: []\n")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Empty(t, config.Username)
	assert.Empty(t, config.Password)
	assert.Empty(t, config.Classes)
	assert.Len(t, config.Warnings(), 3)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("absent file", func(t *testing.T) {
		config := DefaultConfig()
		err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "username: [unterminated\n")
		config := DefaultConfig()
		err := config.LoadFromFile(path)
		require.Error(t, err)
		assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))
	})
}

func TestOutputDirDefault(t *testing.T) {
	original := installDir
	installDir = func() string { return "/opt/learnscraper" }
	defer func() { installDir = original }()

	config := DefaultConfig()
	assert.Equal(t, filepath.Join("/opt/learnscraper", "downloads"), config.OutputDir())

	config.DropboxLocation = "/home/me/Dropbox/school"
	assert.Equal(t, "/home/me/Dropbox/school", config.OutputDir())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEARNSCRAPER_USERNAME", "env-user")
	t.Setenv("LEARNSCRAPER_PASSWORD", "env-pass")
	t.Setenv("LEARNSCRAPER_OUTPUT_DIR", "/tmp/env-downloads")
	t.Setenv("LEARNSCRAPER_PORTAL_URL", "http://localhost:8080/")
	t.Setenv("LEARNSCRAPER_REQUESTS_PER_MINUTE", "30")
	t.Setenv("LEARNSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	if config.Username != "env-user" {
		t.Errorf("Expected username to be env-user, got %s", config.Username)
	}
	if config.Password != "env-pass" {
		t.Errorf("Expected password to be env-pass, got %s", config.Password)
	}
	if config.OutputDir() != "/tmp/env-downloads" {
		t.Errorf("Expected output directory to be /tmp/env-downloads, got %s", config.OutputDir())
	}
	if config.Portal.BaseURL != "http://localhost:8080/" {
		t.Errorf("Expected portal URL override, got %s", config.Portal.BaseURL)
	}
	if config.Portal.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.Portal.RequestsPerMinute)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("LEARNSCRAPER_REQUESTS_PER_MINUTE", "lots")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing credentials are not a validation error",
			mutate:    func(c *Config) { c.Username = ""; c.Password = ""; c.Classes = nil },
			wantError: false,
		},
		{
			name:      "relative portal URL",
			mutate:    func(c *Config) { c.Portal.BaseURL = "learn.example.edu" },
			wantError: true,
		},
		{
			name:      "zero timeout",
			mutate:    func(c *Config) { c.Portal.Timeout = 0 },
			wantError: true,
		},
		{
			name:      "negative rate",
			mutate:    func(c *Config) { c.Portal.RequestsPerMinute = -1 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	config.MergeCommandLineFlags(map[string]interface{}{
		"output":     "/flag/output",
		"portal-url": "http://127.0.0.1:9999/",
		"log-level":  "error",
		"regex":      true,
		"tui":        true,
		"notify":     true,
		"color":      false,

		"requests-per-minute": 20,
	})

	assert.Equal(t, "/flag/output", config.OutputDir())
	assert.Equal(t, "http://127.0.0.1:9999/", config.Portal.BaseURL)
	assert.Equal(t, "error", config.Logging.Level)
	assert.True(t, config.Portal.RegexCourseMatch)
	assert.True(t, config.UI.TUI)
	assert.True(t, config.UI.Notify)
	assert.False(t, config.UI.Color)
	assert.Equal(t, 20, config.Portal.RequestsPerMinute)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
username: file-user
password: file-pass
classes: [MATH 135]
dropbox_location: /file/output
`)
	t.Setenv("LEARNSCRAPER_USERNAME", "env-user")

	config, err := Load(path, map[string]interface{}{"output": "/flag/output"})
	require.NoError(t, err)

	assert.Equal(t, "env-user", config.Username)
	assert.Equal(t, "file-pass", config.Password)
	assert.Equal(t, "/flag/output", config.OutputDir())
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yml")

	config := DefaultConfig()
	config.Username = "saved"
	config.Classes = []string{"CS 136"}
	config.Portal.Timeout = 15 * time.Second

	require.NoError(t, config.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "saved", loaded.Username)
	assert.Equal(t, []string{"CS 136"}, loaded.Classes)
	assert.Equal(t, 15*time.Second, loaded.Portal.Timeout)
}

func TestMasked(t *testing.T) {
	config := DefaultConfig()
	config.Password = "hunter2"

	masked := config.Masked()
	assert.Equal(t, "********", masked.Password)
	assert.Equal(t, "hunter2", config.Password)
}
