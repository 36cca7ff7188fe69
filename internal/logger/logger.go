package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log message
type Level int

const (
	// LevelDebug for detailed troubleshooting
	LevelDebug Level = iota
	// LevelInfo for general operational entries
	LevelInfo
	// LevelWarn for non-critical issues
	LevelWarn
	// LevelError for errors that should be addressed
	LevelError
)

// Fields is an alias so callers don't need to import logrus directly
type Fields = logrus.Fields

var (
	// Default logger. Stdout is reserved for the MCP stdio transport, so
	// everything goes to stderr.
	logger   = newLogrus(os.Stderr, "text")
	logLevel = LevelInfo
)

func newLogrus(out io.Writer, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006/01/02 15:04:05",
		})
	}
	l.SetLevel(logrus.DebugLevel)
	return l
}

// Initialize sets up the logger with the specified level and output format
// ("text" or "json").
func Initialize(level, format string) {
	logger = newLogrus(os.Stderr, format)
	setLogLevel(level)
}

// SetOutput redirects log output, mainly for tests
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// setLogLevel sets the log level from a string
func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logLevel = LevelDebug
	case "info":
		logLevel = LevelInfo
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func logMessage(level Level, fields Fields, format string, v ...interface{}) {
	if level < logLevel {
		return
	}
	entry := logrus.NewEntry(logger)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Logf(toLogrus(level), format, v...)
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	logMessage(LevelDebug, nil, format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	logMessage(LevelInfo, nil, format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	logMessage(LevelWarn, nil, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logMessage(LevelError, nil, format, v...)
}

// ErrorWithStack logs an error with a stack trace
func ErrorWithStack(err error) {
	if err == nil {
		return
	}
	logMessage(LevelError, nil, "%v\n%s", err, debug.Stack())
}

// Entry is a logger bound to a set of structured fields
type Entry struct {
	fields Fields
}

// WithFields returns an Entry that attaches fields to every message
func WithFields(fields Fields) *Entry {
	return &Entry{fields: fields}
}

// Debug logs a debug message with the entry's fields
func (e *Entry) Debug(format string, v ...interface{}) {
	logMessage(LevelDebug, e.fields, format, v...)
}

// Info logs an info message with the entry's fields
func (e *Entry) Info(format string, v ...interface{}) {
	logMessage(LevelInfo, e.fields, format, v...)
}

// Warn logs a warning with the entry's fields
func (e *Entry) Warn(format string, v ...interface{}) {
	logMessage(LevelWarn, e.fields, format, v...)
}

// Error logs an error with the entry's fields
func (e *Entry) Error(format string, v ...interface{}) {
	logMessage(LevelError, e.fields, format, v...)
}

// QueryLog logs an outgoing SQL statement at debug level, truncated to max bytes
func QueryLog(target, query string, max int) {
	if len(query) > max && max > 0 {
		query = query[:max] + "..."
	}
	logMessage(LevelDebug, Fields{"target": target}, "SQL: %s", strings.TrimSpace(query))
}
