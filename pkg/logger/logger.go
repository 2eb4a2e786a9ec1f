// Package logger provides structured logging for the reconciliation pipeline.
//
// The Logger interface wraps logrus so that packages depend on a small
// logging contract rather than a concrete library. Components attach their
// name via WithComponent, which shows up as a structured field on every line.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger interface defines the logging contract
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields represents a map of key-value pairs for structured logging
type Fields map[string]interface{}

// Level represents log levels
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format represents log output formats
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Config holds configuration options for the logger
type Config struct {
	Level  Level  `json:"level"`
	Format Format `json:"format"`
	Output io.Writer
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  InfoLevel,
		Format: TextFormat,
		Output: os.Stderr,
	}
}

// logrusLogger wraps logrus to implement the Logger interface
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	l := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	l.SetLevel(level)

	if config.Output != nil {
		l.SetOutput(config.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	switch config.Format {
	case JSONFormat:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

// NewDefaultLogger creates a logger with default settings. Defaults are
// always valid, so the error path cannot trigger; call sites that cannot
// propagate errors use this.
func NewDefaultLogger() Logger {
	l, err := NewLogger(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default logger configuration invalid: %v", err))
	}
	return l
}

// NewNopLogger returns a logger that discards all output. Used in tests.
func NewNopLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (ll *logrusLogger) Debug(args ...interface{})                 { ll.entry.Debug(args...) }
func (ll *logrusLogger) Debugf(format string, args ...interface{}) { ll.entry.Debugf(format, args...) }
func (ll *logrusLogger) Info(args ...interface{})                  { ll.entry.Info(args...) }
func (ll *logrusLogger) Infof(format string, args ...interface{})  { ll.entry.Infof(format, args...) }
func (ll *logrusLogger) Warn(args ...interface{})                  { ll.entry.Warn(args...) }
func (ll *logrusLogger) Warnf(format string, args ...interface{})  { ll.entry.Warnf(format, args...) }
func (ll *logrusLogger) Error(args ...interface{})                 { ll.entry.Error(args...) }
func (ll *logrusLogger) Errorf(format string, args ...interface{}) { ll.entry.Errorf(format, args...) }
func (ll *logrusLogger) Fatal(args ...interface{})                 { ll.entry.Fatal(args...) }
func (ll *logrusLogger) Fatalf(format string, args ...interface{}) { ll.entry.Fatalf(format, args...) }

func (ll *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: ll.entry.WithField(key, value)}
}

func (ll *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: ll.entry.WithFields(logrus.Fields(fields))}
}

func (ll *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: ll.entry.WithError(err)}
}

func (ll *logrusLogger) WithComponent(component string) Logger {
	return &logrusLogger{entry: ll.entry.WithField("component", component)}
}
