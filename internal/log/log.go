// Package log is a structured logger used throughout meshnode. It wraps
// log/slog with the terminal/JSON handler pair and the level names the
// rest of the codebase expects, following the same shape as the log
// package used across the ecosystem this node was built in.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Level aliases so callers don't need to import log/slog directly.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = slog.Level(12)
)

// Logger is the interface every component logs through. It is satisfied
// by *logger and by any slog.Handler-backed implementation, so tests can
// supply a fake.
type Logger interface {
	With(ctx ...any) Logger
	New(ctx ...any) Logger

	Log(level slog.Level, msg string, ctx ...any)
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	Enabled(level slog.Level) bool
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger wraps an slog.Handler in the Logger interface.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Log(level slog.Level, msg string, ctx ...any) { l.write(level, msg, ctx) }
func (l *logger) Trace(msg string, ctx ...any)                 { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any)                 { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)                  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)                  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any)                 { l.write(LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any) {
	l.write(LevelCrit, msg, ctx)
	os.Exit(1)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) New(ctx ...any) Logger { return l.With(ctx...) }

func (l *logger) Enabled(level slog.Level) bool {
	return l.inner.Enabled(context.Background(), level)
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }
