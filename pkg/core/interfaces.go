package core

import (
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface for build and session logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// slogLogger adapts a *slog.Logger to the Logger interface
type slogLogger struct {
	logger *slog.Logger
}

// NewLogger wraps a structured logger so it can be handed to code that only
// needs Printf-style progress output. A nil logger uses slog.Default().
func NewLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Printf implements Logger
func (l *slogLogger) Printf(format string, args ...interface{}) {
	l.logger.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// discardLogger drops every message
type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// DiscardLogger is a Logger that drops all output, used when no logger is configured
var DiscardLogger Logger = discardLogger{}
