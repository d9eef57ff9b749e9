package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelCrit:  "CRIT",
}

var levelColors = map[slog.Level]int{
	LevelTrace: 90,
	LevelDebug: 36,
	LevelInfo:  32,
	LevelWarn:  33,
	LevelError: 31,
	LevelCrit:  35,
}

func levelName(l slog.Level) string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return l.String()
}

// terminalHandler renders colorized, column-aligned logfmt output for
// interactive terminals; identical shape with color disabled for piped
// output.
type terminalHandler struct {
	mu        sync.Mutex
	wr        io.Writer
	level     slog.Level
	color     bool
	attrs     []slog.Attr
	useCaller bool
}

// NewTerminalHandlerWithLevel builds a terminalHandler writing to wr at
// the given minimum level. useColor forces ANSI color on or off.
func NewTerminalHandlerWithLevel(wr io.Writer, level slog.Level, useColor bool) slog.Handler {
	return &terminalHandler{wr: wr, level: level, color: useColor, useCaller: true}
}

// NewTerminalHandler auto-detects color support via isatty/colorable.
func NewTerminalHandler(wr io.Writer, useColor bool) slog.Handler {
	if f, ok := wr.(*os.File); ok && useColor && isatty.IsTerminal(f.Fd()) {
		wr = colorable.NewColorable(f)
	} else {
		useColor = false
	}
	return NewTerminalHandlerWithLevel(wr, LevelTrace, useColor)
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ts := time.Now().Format("01-02|15:04:05.000")
	lvl := levelName(r.Level)
	var b strings.Builder
	if h.color {
		fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m[%s] %s", levelColors[r.Level], lvl, ts, r.Message)
	} else {
		fmt.Fprintf(&b, "%s [%s] %s", lvl, ts, r.Message)
	}

	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, formatValue(a.Value))
	}
	if h.useCaller && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&b, " caller=%s:%d", filepath.Base(frame.File), frame.Line)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.wr, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &terminalHandler{
		wr:        h.wr,
		level:     h.level,
		color:     h.color,
		useCaller: h.useCaller,
		attrs:     append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
	return n
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler { return h }

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindInt64:
		return FormatLogfmtInt64(v.Int64())
	case slog.KindUint64:
		return FormatLogfmtUint64(v.Uint64())
	default:
		return fmt.Sprintf("%v", v.Any())
	}
}

// JSONHandler returns a slog.Handler that writes one JSON object per line.
func JSONHandler(wr io.Writer) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		Level: LevelTrace,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				lvl, _ := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(levelName(lvl))
			}
			return a
		},
	})
}
