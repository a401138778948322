package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esdu/learn-scraper/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer, level zerolog.Level) *zerologLogger {
	zlog := zerolog.New(buf).Level(level)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "warn level", cfg: &config.LoggingConfig{Level: "warn"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "empty level defaults to warn", cfg: &config.LoggingConfig{}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "chatty"}, wantErr: true},
		{
			name: "file output",
			cfg:  &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path}, &bytes.Buffer{})
	require.NoError(t, err)

	l.WithField("course", "MATH 135").Info("walking content")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"course":"MATH 135"`)
	assert.Contains(t, string(data), `"app":"learnscraper"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, zerolog.WarnLevel)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "shown warn")
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, zerolog.DebugLevel)

	l.WithField("course", "CS 136").
		WithFields(map[string]interface{}{"items": 4, "dry_run": true}).
		WithError(errors.New("boom")).
		Info("chained")

	output := buf.String()
	if !strings.Contains(output, `"course":"CS 136"`) {
		t.Error("course field not found in output")
	}
	if !strings.Contains(output, `"items":4`) {
		t.Error("items field not found in output")
	}
	if !strings.Contains(output, `"dry_run":true`) {
		t.Error("dry_run field not found in output")
	}
	if !strings.Contains(output, `"error":"boom"`) {
		t.Error("error field not found in output")
	}
}

func TestWithErrorNil(t *testing.T) {
	l := newBufferLogger(&bytes.Buffer{}, zerolog.DebugLevel)
	assert.Same(t, l, l.WithError(nil))
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf, zerolog.DebugLevel)

	_ = parent.WithField("course", "MATH 135")
	parent.Info("parent")

	assert.NotContains(t, buf.String(), "MATH 135")
}

func TestLogRequest(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "DEBUG"},
		{302, "DEBUG"},
		{404, "WARN"},
		{503, "ERROR"},
	}

	for _, tt := range tests {
		tl := NewTestLogger()
		LogRequest(tl, "GET", "https://learn.example.edu/", tt.status, 15*time.Millisecond)

		msgs := tl.GetMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, tt.level, msgs[0].Level)
		assert.Equal(t, tt.status, msgs[0].Fields["status_code"])
	}
}

func TestLogItem(t *testing.T) {
	tl := NewTestLogger()

	LogItem(tl, "MATH 135", "12345", "/tmp/out/MATH 135/notes.pdf", false)
	LogItem(tl, "MATH 135", "12346", "/tmp/out/MATH 135/slides.pdf", true)

	assert.True(t, tl.HasMessage("file downloaded"))
	assert.True(t, tl.HasMessage("file already present, skipped"))
	assert.Len(t, tl.GetMessagesByLevel("INFO"), 1)
}

func TestTestLoggerSharesBuffer(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("course", "ECON 101").WithError(errors.New("eof"))

	child.Warn("retrying nothing")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ECON 101", msgs[0].Fields["course"])
	assert.EqualError(t, msgs[0].Error, "eof")
	assert.Contains(t, tl.String(), "[WARN] retrying nothing")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	assert.Error(t, Initialize(&config.LoggingConfig{Level: "nope"}))
}
