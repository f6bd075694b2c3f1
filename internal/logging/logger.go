// Package logging defines the structured logger used by the services,
// middleware and queue workers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a context-aware, structured logger. Args are key/value pairs:
//
//	log.Info(ctx, "button created", "button_id", id, "user_id", uid)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// Log is the Logger used outside tests. Every record carries the
// caller's context.
type Log struct {
	base *slog.Logger
}

// Std returns the wrapped *slog.Logger, for echo's request logger.
func (l *Log) Std() *slog.Logger { return l.base }

func (l *Log) Debug(ctx context.Context, msg string, args ...any) {
	l.base.Log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Log) Info(ctx context.Context, msg string, args ...any) {
	l.base.Log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Log) Warn(ctx context.Context, msg string, args ...any) {
	l.base.Log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Log) Error(ctx context.Context, msg string, args ...any) {
	l.base.Log(ctx, slog.LevelError, msg, args...)
}

func (l *Log) With(args ...any) Logger { return &Log{base: l.base.With(args...)} }

// New builds a slog-backed Logger. format is "json" or "text"; an empty
// format picks text in the dev environment and json everywhere else.
func New(w io.Writer, env, level, format string) *Log {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == "" {
		format = "json"
		if env == "dev" {
			format = "text"
		}
	}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &Log{base: slog.New(h)}
}

// ParseLevel maps LOG_LEVEL values onto slog levels (info on unknown input).
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Nop returns a Logger that discards everything. Handy in tests.
func Nop() Logger {
	return &Log{base: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
