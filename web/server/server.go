package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/df07/go-swept-surface/pkg/config"
	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/geometry"
	"github.com/df07/go-swept-surface/pkg/loaders"
	"github.com/df07/go-swept-surface/pkg/model"
	"github.com/df07/go-swept-surface/pkg/renderer"
	"github.com/gorilla/websocket"
)

// Request limits
const (
	MinSteps        = 1
	MaxSteps        = 100
	MinPreviewSize  = 16
	MaxPreviewSize  = 2000
	maxModelBodyLen = 4 << 20
)

var errNoModel = errors.New("no model loaded")

// Server serves one shared model to any number of clients. Each WebSocket
// connection gets its own camera and keyframe editor.
type Server struct {
	port   int
	config config.Config
	logger *slog.Logger

	mu        sync.RWMutex
	model     *model.Model
	modelPath string // saved to on PUT when set
	version   int    // incremented on every model change

	subsMu      sync.Mutex
	subscribers map[chan SSEEvent]struct{}
	console     chan ConsoleMessage

	upgrader websocket.Upgrader
}

// NewServer creates a new web server
func NewServer(port int, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:        port,
		config:      cfg,
		logger:      logger,
		subscribers: make(map[chan SSEEvent]struct{}),
		console:     make(chan ConsoleMessage, 50),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	go s.streamConsoleMessages()
	return s
}

// SetModel replaces the shared model and notifies event subscribers
func (s *Server) SetModel(m *model.Model) {
	s.mu.Lock()
	s.model = m
	s.version++
	s.mu.Unlock()
	s.modelChanged()
}

// LoadModel loads path as the shared model and remembers it for saving
func (s *Server) LoadModel(path string) error {
	m, err := loaders.LoadModel(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.modelPath = path
	s.mu.Unlock()
	s.SetModel(m)
	s.logger.Info("model loaded", "path", path, "keyframes", m.N(), "points", m.M())
	return nil
}

// Watch reloads the model file on change until ctx is cancelled
func (s *Server) Watch(ctx context.Context) error {
	s.mu.RLock()
	path := s.modelPath
	s.mu.RUnlock()
	if path == "" {
		return errNoModel
	}
	logger := NewWebLogger("watch", core.NewLogger(s.logger), s.console)
	return loaders.WatchModel(ctx, path, loaders.WatchOptions{Logger: logger}, func(m *model.Model, err error) {
		if err != nil {
			s.broadcast(SSEEvent{Type: "error", Data: quoteJSON(err.Error())})
			return
		}
		s.SetModel(m)
	})
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/model", s.handleModel)
	mux.HandleFunc("/api/surface", s.handleSurface)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "url", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig returns the server defaults with the request limits
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"defaults": map[string]interface{}{
			"steps":        s.config.Surface.Steps,
			"sectionSteps": s.config.Surface.SectionSteps,
			"section":      s.config.Surface.Section,
			"camera":       cameraToJSON(renderer.NewCamera(s.config.CameraConfig())),
			"width":        s.config.Preview.Width,
			"height":       s.config.Preview.Height,
		},
		"limits": map[string]interface{}{
			"steps":  map[string]int{"min": MinSteps, "max": MaxSteps},
			"width":  map[string]int{"min": MinPreviewSize, "max": MaxPreviewSize},
			"height": map[string]int{"min": MinPreviewSize, "max": MaxPreviewSize},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// handleModel returns the model as JSON on GET and replaces it from the
// text layout on PUT
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		m := s.model
		var body modelJSON
		if m != nil {
			body = modelToJSON(m)
		}
		s.mu.RUnlock()
		if m == nil {
			writeError(w, http.StatusNotFound, errNoModel)
			return
		}
		writeJSON(w, http.StatusOK, body)

	case http.MethodPut:
		m, err := loaders.ParseModel(http.MaxBytesReader(w, r.Body, maxModelBodyLen))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		s.mu.RLock()
		path := s.modelPath
		s.mu.RUnlock()
		if path != "" {
			if err := loaders.SaveModel(path, m); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		s.SetModel(m)
		s.logger.Info("model replaced", "keyframes", m.N(), "points", m.M())
		writeJSON(w, http.StatusOK, modelToJSON(m))

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

// handleSurface builds the surface and returns its rings
func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseSurfaceOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	surface, version, err := s.buildSurface(opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, surfaceToJSON(surface, version))
}

// handlePreview renders a wireframe PNG from the configured camera
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts, err := s.parseSurfaceOptions(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	width, err := parseIntParam(query, "width", s.config.Preview.Width, MinPreviewSize, MaxPreviewSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := parseIntParam(query, "height", s.config.Preview.Height, MinPreviewSize, MaxPreviewSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	surface, _, err := s.buildSurface(opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	camera := renderer.NewCamera(s.config.CameraConfig())
	camera.Aspect = float64(width) / float64(height)
	wf := s.config.Wireframe()
	wf.Width, wf.Height = width, height
	img := wf.Render(camera, surface)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// buildSurface builds the current model under the read lock
func (s *Server) buildSurface(opts geometry.SurfaceOptions) (*geometry.Surface, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, s.version, errNoModel
	}
	surface, err := geometry.BuildSurface(s.model, opts)
	return surface, s.version, err
}

// parseSurfaceOptions reads steps, sectionSteps and section on top of the
// configured defaults
func (s *Server) parseSurfaceOptions(values url.Values) (geometry.SurfaceOptions, error) {
	opts := s.config.SurfaceOptions()
	var err error
	if opts.Steps, err = parseIntParam(values, "steps", opts.Steps, MinSteps, MaxSteps); err != nil {
		return opts, err
	}
	if opts.SectionSteps, err = parseIntParam(values, "sectionSteps", opts.SectionSteps, 0, MaxSteps); err != nil {
		return opts, err
	}
	if section := values.Get("section"); section != "" {
		if opts.Section, err = geometry.ParseSectionPolicy(section); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// statusFor maps model errors to 400 and everything else to 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoModel):
		return http.StatusNotFound
	case loaders.IsModelError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func quoteJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
