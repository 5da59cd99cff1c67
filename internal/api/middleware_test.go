package api

import (
	"log/slog"
	"testing"
)

func TestRequestLogLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/roads/ask", 200, slog.LevelInfo},
		{"/api/roads/ask", 422, slog.LevelWarn},
		{"/api/roads/ask", 502, slog.LevelError},
		{"/healthz", 200, slog.LevelDebug},
		{"/readyz", 503, slog.LevelError},
		{"/metrics", 200, slog.LevelDebug},
	}
	for _, tc := range tests {
		if got := requestLogLevel(tc.path, tc.status); got != tc.want {
			t.Errorf("requestLogLevel(%q, %d) = %v, want %v", tc.path, tc.status, got, tc.want)
		}
	}
}
