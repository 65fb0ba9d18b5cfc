// Package logging installs relgraph's slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Setup builds a text or JSON handler writing to w at the given level,
// installs it as the default logger and returns it.
func Setup(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("log format %q: want text or json", format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops everything; tests pass it to
// components that would otherwise log to stderr.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
