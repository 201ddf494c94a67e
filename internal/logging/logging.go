// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects handler format and minimum level.
type Config struct {
	Level  string
	Format string
}

// New creates a logger writing to stderr and installs it as the slog default.
// Format "json" selects the JSON handler, anything else the text handler.
func New(cfg Config) *slog.Logger {
	logger := newWithWriter(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

func newWithWriter(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog level; default info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
