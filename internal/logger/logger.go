// Package logger provides a simple logging interface for sysmon components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
//
// The UI owns the terminal while it runs, so the production logger writes to
// a size-rotated error.log in the config directory instead of stderr.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Level is the minimum severity a leveled logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Levels lists the accepted log_level config values in order of severity.
var Levels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

// ParseLevel converts a log_level config value. Unknown values map to WARNING.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "ERROR":
		return LevelError
	default:
		return LevelWarning
	}
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "WARNING"
	}
	return Levels[l]
}

// DebugEnv forces debug logging when set to any non-empty value.
const DebugEnv = "SYSMON_DEBUG"

// Leveled writes "date | LEVEL: message" lines to an io.Writer.
type Leveled struct {
	mu     sync.Mutex
	out    *log.Logger
	level  Level
	closer io.Closer
}

// New creates a leveled logger writing to w. SYSMON_DEBUG overrides level.
func New(w io.Writer, level Level) *Leveled {
	if os.Getenv(DebugEnv) != "" {
		level = LevelDebug
	}
	l := &Leveled{
		out:   log.New(w, "", 0),
		level: level,
	}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// NewFileLogger opens path through a rotating writer (1 MiB, 4 backups).
func NewFileLogger(path string, level Level) (*Leveled, error) {
	w, err := NewRotatingWriter(path, DefaultMaxBytes, DefaultBackups)
	if err != nil {
		return nil, err
	}
	return New(w, level), nil
}

// SetLevel changes the threshold at runtime.
func (l *Leveled) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Leveled) logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	l.out.Printf("%s | %s: %s", timestamp(), level, fmt.Sprintf(format, args...))
}

func (l *Leveled) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

func (l *Leveled) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

func (l *Leveled) Warn(format string, args ...interface{}) {
	l.logf(LevelWarning, format, args...)
}

func (l *Leveled) Error(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// Close releases the underlying file, if any.
func (l *Leveled) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// noopLogger implements Logger but discards all messages.
// Useful for testing or when logging is not desired.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing. Safe for concurrent use,
// since collectors log from the scheduler goroutine.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
	l.mu.Unlock()
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// Messages returns a copy of everything logged so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Count returns how many messages contain substr.
func (l *BufferLogger) Count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.Contains(m.Message, substr) {
			n++
		}
	}
	return n
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	l.messages = l.messages[:0]
	l.mu.Unlock()
}

// Once wraps a Logger so each distinct key is logged a single time. Used for
// degraded features that would otherwise log on every collection cycle.
type Once struct {
	Logger
	mu   sync.Mutex
	seen map[string]bool
}

// NewOnce wraps l.
func NewOnce(l Logger) *Once {
	return &Once{Logger: l, seen: make(map[string]bool)}
}

// Warnf logs format under key unless key was already logged.
func (o *Once) Warnf(key, format string, args ...interface{}) {
	o.mu.Lock()
	if o.seen[key] {
		o.mu.Unlock()
		return
	}
	o.seen[key] = true
	o.mu.Unlock()
	o.Logger.Warn(format, args...)
}

// defaultLogger is the package-level default logger.
var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = New(os.Stderr, LevelWarning)
)

// Default returns the default logger for the package.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
// This is useful for testing or to configure logging globally.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
