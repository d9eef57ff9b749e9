package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalHandlerNoColor(t *testing.T) {
	out := new(bytes.Buffer)
	h := NewTerminalHandlerWithLevel(out, LevelTrace, false)
	logger := NewLogger(h)
	logger.Info("a message", "foo", "bar")

	have := out.String()
	if !strings.Contains(have, "a message") || !strings.Contains(have, "foo=bar") {
		t.Errorf("unexpected output: %q", have)
	}
}

func TestTerminalHandlerLevelFilter(t *testing.T) {
	out := new(bytes.Buffer)
	h := NewTerminalHandlerWithLevel(out, LevelWarn, false)
	logger := NewLogger(h)
	logger.Debug("should not appear")
	if out.Len() != 0 {
		t.Errorf("expected no output below the configured level, got %q", out.String())
	}
	logger.Warn("should appear")
	if out.Len() == 0 {
		t.Errorf("expected output at or above the configured level")
	}
}

func TestJSONHandlerEmitsDebug(t *testing.T) {
	out := new(bytes.Buffer)
	logger := NewLogger(JSONHandler(out))
	logger.Debug("hi there")
	if out.Len() == 0 {
		t.Error("expected non-empty debug log output from the JSON handler")
	}
}

func TestWithAttrsPropagates(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandlerWithLevel(out, LevelTrace, false)).With("component", "http")
	l.Info("ready")
	if !strings.Contains(out.String(), "component=http") {
		t.Errorf("expected inherited attr in output, got %q", out.String())
	}
}
