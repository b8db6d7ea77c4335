// Package logging provides the structured logger shared by every keyweave
// component. It wraps charmbracelet/log and adds component-scoped loggers
// whose level can be changed at runtime from any of them.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	clog "github.com/charmbracelet/log"
)

// Level is the minimum severity a logger emits.
type Level int32

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

// ParseLevel parses "debug", "info", "warn" or "error" (any case).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Config configures a root logger.
type Config struct {
	// Level is the minimum level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to every message.
	Prefix string
	// Timestamps adds a timestamp to every line.
	Timestamps bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Output:     os.Stderr,
		Prefix:     "keyweave",
		Timestamps: true,
	}
}

// Logger is a leveled, structured logger. Loggers derived with WithField or
// WithComponent share the level of their root.
type Logger struct {
	l     *clog.Logger
	level *atomic.Int32
}

// New creates a root logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	cl := clog.NewWithOptions(cfg.Output, clog.Options{
		Prefix:          cfg.Prefix,
		ReportTimestamp: cfg.Timestamps,
		Level:           clog.DebugLevel,
	})

	lvl := &atomic.Int32{}
	lvl.Store(int32(cfg.Level))
	return &Logger{l: cl, level: lvl}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(Config{Level: LevelError + 1, Output: io.Discard})
}

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithField returns a logger that adds key=value to every message.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{l: l.l.With(key, value), level: l.level}
}

// WithComponent returns a logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum level for this logger and all loggers sharing
// its root.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// Enabled reports whether messages at level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l.Enabled(LevelDebug) {
		l.l.Debug(msg, keyvals...)
	}
}

// Info logs an info message with optional key/value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	if l.Enabled(LevelInfo) {
		l.l.Info(msg, keyvals...)
	}
}

// Warn logs a warning message with optional key/value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	if l.Enabled(LevelWarn) {
		l.l.Warn(msg, keyvals...)
	}
}

// Error logs an error message with optional key/value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	if l.Enabled(LevelError) {
		l.l.Error(msg, keyvals...)
	}
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, v ...any) {
	if l.Enabled(LevelDebug) {
		l.l.Debug(fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, v ...any) {
	if l.Enabled(LevelInfo) {
		l.l.Info(fmt.Sprintf(format, v...))
	}
}
