// Package observability provides the structured logger shared by the
// review-mcp binaries.
package observability

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel defines log message severity
type LogLevel string

// Log levels
const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// Logger defines the interface for logging
type Logger interface {
	// Core logging methods with fields
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})

	// Formatted logging methods
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	// Context methods
	WithPrefix(prefix string) Logger
	With(fields map[string]interface{}) Logger
}

// LoggerConfig configures a ZerologLogger.
type LoggerConfig struct {
	Level   string
	Format  string // "json" (default) or "console"
	Service string
	Output  io.Writer // defaults to os.Stderr; stdout carries the protocol
}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewLogger creates a zerolog backed logger.
func NewLogger(cfg LoggerConfig) *ZerologLogger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return &ZerologLogger{logger: ctx.Logger()}
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn, "WARNING":
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, "WARNING", LogLevelError, LogLevelFatal:
		return true
	}
	return false
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

// Fatal logs and exits the process.
func (l *ZerologLogger) Fatal(msg string, fields map[string]interface{}) {
	l.logger.Fatal().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *ZerologLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal().Msgf(format, args...)
}

// WithPrefix returns a logger tagged with a component name.
func (l *ZerologLogger) WithPrefix(prefix string) Logger {
	return &ZerologLogger{logger: l.logger.With().Str("component", prefix).Logger()}
}

// With returns a logger that adds fields to every entry.
func (l *ZerologLogger) With(fields map[string]interface{}) Logger {
	return &ZerologLogger{logger: l.logger.With().Fields(fields).Logger()}
}

// StdLogger adapts the logger for libraries that expect a *log.Logger.
// Lines are written at error level under the given component.
func (l *ZerologLogger) StdLogger(component string) *log.Logger {
	zl := l.logger.With().Str("component", component).Logger().Level(zerolog.ErrorLevel)
	return log.New(levelWriter{logger: zl}, "", 0)
}

type levelWriter struct {
	logger zerolog.Logger
}

func (w levelWriter) Write(p []byte) (int, error) {
	w.logger.Error().Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NoopLogger discards everything.
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards all entries.
func NewNoopLogger() Logger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) Info(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) Warn(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) Error(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) Fatal(msg string, fields map[string]interface{}) {}

func (l *NoopLogger) Debugf(format string, args ...interface{}) {}

func (l *NoopLogger) Infof(format string, args ...interface{}) {}

func (l *NoopLogger) Warnf(format string, args ...interface{}) {}

func (l *NoopLogger) Errorf(format string, args ...interface{}) {}

func (l *NoopLogger) Fatalf(format string, args ...interface{}) {}

func (l *NoopLogger) WithPrefix(prefix string) Logger { return l }

func (l *NoopLogger) With(fields map[string]interface{}) Logger { return l }
