package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// SlogLogger implements ports.Logger on top of log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewStd creates a logger writing text records to stderr. Debug and info
// records are only emitted when verbose is set.
func NewStd(verbose bool) *SlogLogger {
	return New(os.Stderr, verbose)
}

// New creates a logger writing text records to w. Without verbose only
// warnings and errors are written.
func New(w io.Writer, verbose bool) *SlogLogger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.
func Discard() *SlogLogger {
	return New(io.Discard, false)
}

// Slog exposes the underlying logger for adapters that log attributes directly.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, msg, fields)
}

func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *SlogLogger) Error(msg string, err error, fields map[string]interface{}) {
	attrs := toAttrs(fields)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func (l *SlogLogger) log(level slog.Level, msg string, fields map[string]interface{}) {
	l.logger.LogAttrs(context.Background(), level, msg, toAttrs(fields)...)
}

func toAttrs(fields map[string]interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}
	return attrs
}
