package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-swept-surface/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	source      string
	next        core.Logger
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a web logger for one message source. Messages are
// also passed to next when it is non-nil.
func NewWebLogger(source string, next core.Logger, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		source:      source,
		next:        next,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.next != nil {
		wl.next.Printf("%s", message)
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Source:    wl.source,
			Message:   message,
			Timestamp: time.Now(),
			Level:     messageLevel(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}

// messageLevel reads the level from the leading status emoji
func messageLevel(message string) string {
	switch {
	case strings.HasPrefix(message, "❌"):
		return "error"
	case strings.HasPrefix(message, "⚠️"):
		return "warning"
	default:
		return "info"
	}
}
