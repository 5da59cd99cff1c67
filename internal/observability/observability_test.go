package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name, env string
		want      slog.Level
	}{
		{"debug", "production", slog.LevelDebug},
		{"WARN", "development", slog.LevelWarn},
		{"warning", "", slog.LevelWarn},
		{"error", "", slog.LevelError},
		{"", "production", slog.LevelInfo},
		{"", "development", slog.LevelDebug},
		{"verbose", "production", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.name, tt.env), "ParseLevel(%q, %q)", tt.name, tt.env)
	}
}

func TestNewLogger_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Env: "production"})
	logger.Info("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
}

func TestNewLogger_TextFormatOverridesEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LoggerOptions{Env: "production", Format: "text", Level: "warn"})
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
}

func TestNewMetricsForTesting_Usable(t *testing.T) {
	m := NewMetricsForTesting()
	m.Requests.WithLabelValues("claim", "ok").Inc()
	m.GeocodeCache.WithLabelValues("hit").Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues("claim", "ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")), 0)
	assert.Len(t, m.collectors(), 11)
}
