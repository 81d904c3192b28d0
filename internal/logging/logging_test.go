package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"":        LevelWarn,
		"bogus":   LevelWarn,
		"WARNING": LevelWarn, // unrecognised case is not normalised, falls back
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerGatesByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Debug("should not appear")
	l.Info("should appear: %d", 1)
	l.Warn("should also appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("debug line leaked through at info level: %q", out)
	}
	if !strings.Contains(out, "should appear: 1") {
		t.Fatalf("info line missing: %q", out)
	}
	if !strings.Contains(out, "should also appear") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestLoggerAtDebugLevelShowsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")

	out := buf.String()
	for _, want := range []string{"d", "i", "w"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("fine")
	l.Info("fine")
	l.Warn("fine")
}
