package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	log.Info("hidden")
	log.Warn("visible", slog.Int("counter", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=visible")
	assert.Contains(t, out, "counter=3")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Info("status written")

	assert.Contains(t, buf.String(), `"msg":"status written"`)
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, _, err := New(Options{Format: "xml"})
	assert.Error(t, err)

	_, _, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.log")

	var buf bytes.Buffer
	log, closeFn, err := New(Options{Output: &buf, File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("to both sinks")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both sinks")
	assert.Contains(t, buf.String(), "to both sinks")
}

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.With(slog.String("dsn", "https://key@sentry.example/1")).Info("configured",
		slog.String("password", "hunter2"),
		slog.Group("redis", slog.String("addr", "localhost:6379"), slog.String("password", "s3cret")),
	)

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "sentry.example")
	assert.Contains(t, out, "redis.addr=localhost:6379")
	assert.Contains(t, out, "redis.password=***")
}

func TestFanoutHandler_RespectsLevels(t *testing.T) {
	var all, errorsOnly bytes.Buffer
	log := slog.New(NewFanoutHandler(
		slog.NewTextHandler(&all, nil),
		slog.NewTextHandler(&errorsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	log.Info("routine")
	log.Error("broken")

	assert.Contains(t, all.String(), "routine")
	assert.Contains(t, all.String(), "broken")
	assert.NotContains(t, errorsOnly.String(), "routine")
	assert.Contains(t, errorsOnly.String(), "broken")
}
