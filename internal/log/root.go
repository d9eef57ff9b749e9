package log

import (
	"os"
	"sync/atomic"
)

var root atomic.Value

// loggerBox gives every value stored in root the same concrete type, since
// atomic.Value requires consistent types across Store calls.
type loggerBox struct{ Logger }

func init() {
	root.Store(loggerBox{NewLogger(NewTerminalHandler(os.Stderr, true))})
}

// Root returns the default logger used by the package-level Trace/Debug/...
// helpers.
func Root() Logger {
	return root.Load().(loggerBox).Logger
}

// SetDefault replaces the root logger.
func SetDefault(l Logger) {
	root.Store(loggerBox{l})
}

// New creates a new logger with the given context, derived from Root.
func New(ctx ...any) Logger { return Root().New(ctx...) }

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Crit(msg, ctx...) }
