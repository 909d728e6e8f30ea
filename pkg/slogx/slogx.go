// Package slogx configures structured logging for kinfolk services on top
// of log/slog. Every service builds its logger through New so log lines
// carry the same base attributes and honor the same LOG_LEVEL and
// LOG_FORMAT conventions.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config describes how a service logger should behave.
type Config struct {
	Service string
	Version string
	Env     string // "dev", "test", "prod"
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json" or "text"
}

// New builds the service logger, installs it as the process default and
// returns it. Source locations are only attached in dev.
func New(cfg Config) *slog.Logger {
	handler := newHandler(os.Stdout, cfg)

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)
	slog.SetDefault(logger)

	return logger
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     levelFor(cfg.Level),
		AddSource: cfg.Env == "dev",
	}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// levelFor is forgiving: an unknown string falls back to info rather than
// failing startup over a typo in LOG_LEVEL.
func levelFor(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
