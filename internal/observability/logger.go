// Package observability builds the process logger and the Prometheus metrics
// shared by every component.
package observability

import (
	"io"
	"log/slog"
	"strings"
)

// LoggerOptions selects the handler and level for NewLogger.
type LoggerOptions struct {
	Env    string // "production" switches the default format to json
	Level  string // debug | info | warn | error
	Format string // json | text; empty picks by Env
}

// NewLogger returns a JSON logger in production (or when Format is "json")
// and a text logger otherwise.
func NewLogger(w io.Writer, opts LoggerOptions) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level, opts.Env)}

	format := strings.ToLower(opts.Format)
	if format == "" && opts.Env == "production" {
		format = "json"
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// ParseLevel maps a level name to a slog.Level. Unknown or empty names fall
// back to info in production and debug elsewhere.
func ParseLevel(name, env string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
