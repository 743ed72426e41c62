package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type LogLevel string

const (
	// LogLevelDebug is used for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is used for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is used for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is used for error messages
	LogLevelError LogLevel = "error"
)

// ParseLevel maps a LogLevel to its slog level. Unknown levels map to Info.
func ParseLevel(logLevel LogLevel) slog.Level {
	switch LogLevel(strings.ToLower(string(logLevel))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CreateLogger creates a logger that writes JSON records to daily log files in logDir
// and mirrors them to stdout. Files older than retainDays are removed on rotation; 0 keeps all.
// If logDir is empty or cannot be created, the logger writes to stdout only.
// The returned Closer releases the current log file.
func CreateLogger(logLevel LogLevel, logDir string, fileName string, retainDays int) (Logger, io.Closer) {
	return createLogger(logLevel, logDir, fileName, retainDays, os.Stdout)
}

func createLogger(logLevel LogLevel, logDir string, fileName string, retainDays int, console io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}

	if logDir == "" {
		return slog.New(slog.NewJSONHandler(console, opts)), nopCloser{}
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fallback to console logging if we can't create the log directory
		return slog.New(slog.NewJSONHandler(console, opts)), nopCloser{}
	}

	files := newDailyLogFiles(logDir, fileName, retainDays)

	return slog.New(slog.NewJSONHandler(io.MultiWriter(console, files), opts)), files
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// nopLogger is a no-operation logger that implements the Logger interface.
type nopLogger struct{}

// NopLogger is a singleton Logger that performs no operations.
// Use this when no logging is desired or when a logger is required but no output is needed.
var NopLogger Logger = &nopLogger{}

func (l *nopLogger) Info(msg string, args ...any)  {}
func (l *nopLogger) Warn(msg string, args ...any)  {}
func (l *nopLogger) Error(msg string, args ...any) {}
func (l *nopLogger) Debug(msg string, args ...any) {}

// OrNop returns logger, or NopLogger when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger
	}
	return logger
}
