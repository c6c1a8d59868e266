// Package logger wraps charmbracelet/log with the process-wide settings
// used by the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu            sync.RWMutex
	defaultLogger = newLogger(os.Stderr, charmlog.InfoLevel, false)
)

// Config describes the logger output.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

func newLogger(w io.Writer, level charmlog.Level, json bool) *charmlog.Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	if json {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return l
}

// ParseLevel maps debug/info/warn/error to a charm level, defaulting to info.
func ParseLevel(level string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Setup replaces the default logger.
func Setup(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = newLogger(out, ParseLevel(cfg.Level), cfg.JSON)
}

// Get returns the default logger.
func Get() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// With returns a child of the default logger carrying keyvals.
func With(keyvals ...any) *charmlog.Logger {
	return Get().With(keyvals...)
}
