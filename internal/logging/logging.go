// Package logging provides the CLI-boundary-only logger described in spec
// section 6: log level is controlled by an environment variable read once
// at the CLI entry point, never by the core packages themselves. In the
// teacher's own idiom (main.go's debugEnabled bool gating log.Printf calls
// with a "[DEBUG]" prefix), this just adds a couple more gated levels.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level is a logging verbosity threshold.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
)

// ParseLevel maps the PSYNC_LOG environment variable's value to a Level.
// An empty or unrecognised value yields LevelWarn, matching the teacher's
// "off unless asked" default.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning", "":
		return LevelWarn
	default:
		return LevelWarn
	}
}

// Logger writes level-gated lines to an underlying *log.Logger, the way the
// teacher gates log.Printf behind debugEnabled.
type Logger struct {
	level Level
	out   *log.Logger
}

// New builds a Logger writing to w at the given level. The CLI is expected
// to call this exactly once, after reading PSYNC_LOG. Core packages never
// receive the *Logger; controlfile.Parse takes a plain warning callback.
func New(level Level, w io.Writer) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

// FromEnv reads the PSYNC_LOG environment variable and builds a Logger
// writing to stderr, matching the teacher's stderr-for-diagnostics idiom.
// This is the only place in the module allowed to call os.Getenv for
// logging purposes; core packages must not.
func FromEnv() *Logger {
	return New(ParseLevel(os.Getenv("PSYNC_LOG")), os.Stderr)
}

// FromEnvString reports the level PSYNC_LOG requests and whether it was set
// at all, so a caller can fall back to a config file's default level when
// the environment gives no opinion rather than silently defaulting to warn.
func FromEnvString() (level Level, set bool) {
	v, ok := os.LookupEnv("PSYNC_LOG")
	if !ok {
		return LevelWarn, false
	}
	return ParseLevel(v), true
}

// Stderr is the destination FromEnv and the CLI's other logger
// constructors write to.
func Stderr() io.Writer { return os.Stderr }

func (l *Logger) log(level Level, prefix, format string, args ...interface{}) {
	if l == nil || level > l.level {
		return
	}
	l.out.Printf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, "DEBUG", format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LevelInfo, "INFO", format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LevelWarn, "WARN", format, args...) }
