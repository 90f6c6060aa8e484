// Package server provides the debug HTTP server of the hand pointer: health,
// live gesture status, a snapshot websocket, the annotated preview stream and
// the recordings API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/server/api"
	"github.com/ayusman/handpointer/internal/store"
)

const shutdownTimeout = 5 * time.Second

// StatusSource exposes the live controller state.
type StatusSource interface {
	Snapshot() gesture.Snapshot
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Every collaborator is optional;
// routes whose collaborator is missing are not registered.
type Config struct {
	Addr    string
	Status  StatusSource
	Hub     *StatusHub
	Frames  FrameSource
	Store   *store.Store
	ScreenW int
	ScreenH int
	Logger  *zap.Logger
}

// Server represents the debug HTTP server.
type Server struct {
	config Config
	logger *zap.Logger
	mux    *http.ServeMux
	start  time.Time

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	s := &Server{
		config: config,
		logger: config.Logger.Named("server"),
		mux:    http.NewServeMux(),
		start:  time.Now(),
		quit:   make(chan struct{}),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/status/ws", s.config.Hub)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames, s.quit))
	}

	if s.config.Store != nil {
		recordings := api.NewRecordingHandler(s.config.Store, s.config.ScreenW, s.config.ScreenH)
		s.mux.Handle("/api/recordings", recordings)
		s.mux.Handle("/api/recordings/", recordings)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statusResponse struct {
	Enabled  bool             `json:"enabled"`
	Status   string           `json:"status"`
	Snapshot gesture.Snapshot `json:"snapshot"`
}

type setStatusRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus serves GET /api/status and lets PUT toggle pointer control.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			api.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		s.config.Status.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.config.Status.Snapshot()
	api.WriteJSON(w, http.StatusOK, statusResponse{
		Enabled:  s.config.Status.IsEnabled(),
		Status:   snap.Status(),
		Snapshot: snap,
	})
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Streaming clients are disconnected first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Debug server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.stopStreams()
		return err
	case <-ctx.Done():
	}

	s.stopStreams()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("Debug server stopped")
	return nil
}

func (s *Server) stopStreams() {
	s.quitOnce.Do(func() {
		close(s.quit)
		if s.config.Hub != nil {
			s.config.Hub.Close()
		}
	})
}
