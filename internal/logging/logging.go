// Package logging provides structured logging using Go's slog package.
//
// Logs go to stderr so that tables and document output on stdout stay
// machine-readable.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// CommandKey is the context key for the running subcommand.
	CommandKey ContextKey = "command"
	// ProjectKey is the context key for the project being operated on.
	ProjectKey ContextKey = "project"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger

	// output is where InitLogger writes. Tests swap it for a buffer.
	output io.Writer = os.Stderr
)

func init() {
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

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
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable key=value format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseLevel converts a flag or config value to a Level. Empty means warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "", "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelWarn, errors.NewInvalidValue("log-level", s, "want debug, info, warn or error")
}

// ParseFormat converts a flag or config value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, errors.NewInvalidValue("log-format", s, "want text or json")
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelWarn
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: slogLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithCommand records the running subcommand in ctx.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, CommandKey, command)
}

// WithProject records the project name in ctx.
func WithProject(ctx context.Context, project string) context.Context {
	return context.WithValue(ctx, ProjectKey, project)
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	for _, key := range []ContextKey{CommandKey, ProjectKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// ObjectAdded logs a successful append to a project history.
func ObjectAdded(ctx context.Context, title, version string, seq int64, args ...any) {
	allArgs := []any{
		"title", title,
		"version", version,
		"seq", seq,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("object_added", allArgs...)
}

// DocumentCompiled logs the outcome of resolving and compiling a document.
func DocumentCompiled(ctx context.Context, version, level string, sections, entries int, duration time.Duration, args ...any) {
	allArgs := []any{
		"version", version,
		"level", level,
		"sections", sections,
		"entries", entries,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("document_compiled", allArgs...)
}

// CommandFailed logs a command error together with its exit code.
func CommandFailed(ctx context.Context, err error, exitCode int, args ...any) {
	allArgs := []any{
		"error", err.Error(),
		"exit_code", exitCode,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Debug("command_failed", allArgs...)
}
