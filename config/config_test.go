package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 0, cfg.Intents.Capacity)
}

func TestParse_FullDocument(t *testing.T) {
	doc := `
id: checkout
intents:
  capacity: 64
  overflow: drop_oldest
actions:
  capacity: 16
  overflow: reject
logging:
  level: debug
  format: json
  output: stdout
metrics:
  prefix: app
  report_interval_ms: 250
strict_reduce: true
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "checkout", cfg.ID)
	require.Equal(t, QueueConfig{Capacity: 64, Overflow: "drop_oldest"}, cfg.Intents)
	require.Equal(t, QueueConfig{Capacity: 16, Overflow: "reject"}, cfg.Actions)
	require.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
	require.Equal(t, 250, cfg.Metrics.ReportIntervalMS)
	require.True(t, cfg.StrictReduce)
}

func TestParse_ValidationErrors(t *testing.T) {
	_, err := Parse([]byte("intents:\n  capacity: -1\nlogging:\n  level: loud\n"))
	require.Error(t, err)

	var verr *ValidationErrors
	require.True(t, errors.As(err, &verr), "want *ValidationErrors, got %T", err)
	fields := make([]string, 0, len(verr.Errors))
	for _, e := range verr.Errors {
		fields = append(fields, e.Field)
	}
	require.ElementsMatch(t, []string{"intents.capacity", "logging.level"}, fields)
}

func TestParse_OverflowNeedsCapacity(t *testing.T) {
	_, err := Parse([]byte("actions:\n  overflow: reject\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "actions.overflow")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("intents: [unterminated"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mvix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: from-file\n"), 0o644))

	t.Setenv("MVIX_ID", "from-env")
	t.Setenv("MVIX_INTENT_CAPACITY", "8")
	t.Setenv("MVIX_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.ID)
	require.Equal(t, 8, cfg.Intents.Capacity)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.HasPrefix(out, "{"), "want JSON output, got %q", out)
	require.Contains(t, out, `"k":"v"`)
}
