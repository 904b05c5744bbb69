package utils

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel is the minimum severity a Logger emits
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the logrus formatter
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoggerConfig holds the settings used to build a Logger
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr so that check progress on stdout stays clean.
	Output io.Writer
}

// Logger wraps a logrus logger with component-scoped helpers
type Logger struct {
	*logrus.Logger
}

type loggerKey struct{}

// NewLogger creates a Logger from the given configuration.
// Unknown levels fall back to info and unknown formats to text.
func NewLogger(config LoggerConfig) *Logger {
	l := logrus.New()

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)
	l.SetLevel(parseLevel(config.Level))

	switch LogFormat(strings.ToLower(string(config.Format))) {
	case LogFormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return &Logger{Logger: l}
}

// NewDefaultLogger creates an info-level text logger writing to stderr
func NewDefaultLogger() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelInfo, Format: LogFormatText})
}

// WithComponent returns an entry tagged with the given component name
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// IsValidLogLevel reports whether level is one of the supported levels
func IsValidLogLevel(level string) bool {
	switch LogLevel(strings.ToLower(level)) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// IsValidLogFormat reports whether format is one of the supported formats
func IsValidLogFormat(format string) bool {
	switch LogFormat(strings.ToLower(format)) {
	case LogFormatText, LogFormatJSON:
		return true
	default:
		return false
	}
}

// WithLogger stores the logger in ctx
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext returns the logger stored by WithLogger, or nil
func LoggerFromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*Logger)
	return logger
}

func parseLevel(level LogLevel) logrus.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
