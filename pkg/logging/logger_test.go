package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewReturnsUsableLogger(t *testing.T) {
	logger := New("debug")
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected non-nil logger")
	}
	child := logger.With("component", "test")
	if child == nil || child.Logger == nil {
		t.Fatal("expected non-nil child logger")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected default logger")
	}
}
