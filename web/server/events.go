package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "surface", "console", "error"
	Data string `json:"data"` // JSON-encoded data
}

// handleEvents streams a surface event for every model change, plus console
// output, until the client disconnects
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	ctx := r.Context()
	sseEventChan := s.subscribe()
	defer s.unsubscribe(sseEventChan)

	// Current state first so late subscribers do not wait for a change
	if event, ok := s.surfaceEvent(); ok {
		sseEventChan <- event
	}

	s.writeSSEEvents(w, ctx, sseEventChan)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			// Check if client is still connected before writing
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, 100)
	s.subsMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan SSEEvent) {
	s.subsMu.Lock()
	delete(s.subscribers, ch)
	s.subsMu.Unlock()
}

// broadcast sends event to every subscriber, dropping it for subscribers
// whose buffer is full
func (s *Server) broadcast(event SSEEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// modelChanged pushes the rebuilt surface to subscribers
func (s *Server) modelChanged() {
	if event, ok := s.surfaceEvent(); ok {
		s.broadcast(event)
	}
}

// surfaceEvent builds the current model with the configured options
func (s *Server) surfaceEvent() (SSEEvent, bool) {
	surface, version, err := s.buildSurface(s.config.SurfaceOptions())
	if errors.Is(err, errNoModel) {
		return SSEEvent{}, false
	}
	if err != nil {
		return SSEEvent{Type: "error", Data: quoteJSON(err.Error())}, true
	}
	data, err := json.Marshal(surfaceToJSON(surface, version))
	if err != nil {
		s.logger.Error("marshal surface", "error", err)
		return SSEEvent{}, false
	}
	return SSEEvent{Type: "surface", Data: string(data)}, true
}

// streamConsoleMessages forwards console output to every subscriber
func (s *Server) streamConsoleMessages() {
	for consoleMsg := range s.console {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			s.logger.Error("marshal console message", "error", err)
			continue
		}
		s.broadcast(SSEEvent{Type: "console", Data: string(data)})
	}
}
