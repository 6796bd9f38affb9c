package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/pkg/config"
)

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestLoggerLevels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("classify start") }, "classify start", "debug"},
		{"info", func() { log.Info("criteria applied") }, "criteria applied", "info"},
		{"warn", func() { log.Warn("risk filter skipped") }, "risk filter skipped", "warn"},
		{"error", func() { log.Error("fetch failed") }, "fetch failed", "error"},
		{"infof", func() { log.Infof("selected %d stocks", 8) }, "selected 8 stocks", "info"},
		{"warnf", func() { log.Warnf("source %s empty", "mock") }, "source mock empty", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decodeLast(t, &buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, "picker", entry["service"])
		})
	}
}

func TestWithFieldsAndComponent(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development").Component("classifier")

	log.WithFields(map[string]interface{}{
		"up_ratio": 0.6,
		"mode":     "normal",
	}).Info("market classified")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "classifier", entry["component"])
	assert.Equal(t, 0.6, entry["up_ratio"])
	assert.Equal(t, "normal", entry["mode"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development")

	log.WithError(errors.New("all sources failed")).Error("run aborted")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "all sources failed", entry["error"])
	assert.Equal(t, "run aborted", entry["message"])
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "development").Component("orchestrator")

	log.WithRun("run-1", "20250106").Info("Selection run completed")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "20250106", entry["trade_date"])
	assert.Equal(t, "orchestrator", entry["component"])
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Info("ignored")
	})
}

func TestLogFormats_WriteToStderr(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			oldStderr := os.Stderr
			r, w, err := os.Pipe()
			require.NoError(t, err)
			os.Stderr = w

			log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: format})
			log.Info("test message")

			w.Close()
			os.Stderr = oldStderr

			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)
			assert.Contains(t, buf.String(), "test message")
		})
	}
}
