package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mfreitag/benchhub/internal/hub"
	"github.com/mfreitag/benchhub/internal/store"
)

// Server handles HTTP requests for the BenchHub API and the per-session
// websocket channel.
//
// Every mutating handler follows the same shape: resolve the owning
// session via the record store, apply the mutation, then publish the
// corresponding event through the hub. Queries never publish.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	hub        *hub.Hub
	port       int
	origins    []string
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Record store for all session-scoped data
//   - h: Hub for event fan-out to live subscribers
//   - port: TCP port to listen on
//   - origins: CORS allow-list; "*" allows any origin
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, h *hub.Hub, port int, origins []string, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		hub:     h,
		port:    port,
		origins: origins,
		logger:  logger,
	}
}

// Handler returns the fully routed handler, including CORS middleware.
// Exposed separately from Start so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{sid}", s.handleGetSession)
	mux.HandleFunc("PATCH /api/sessions/{sid}", s.handleUpdateSession)

	mux.HandleFunc("POST /api/sessions/{sid}/notes", s.handleCreateNote)
	mux.HandleFunc("GET /api/sessions/{sid}/notes", s.handleListNotes)
	mux.HandleFunc("GET /api/sessions/{sid}/notes/export", s.handleExportNotes)
	mux.HandleFunc("GET /api/sessions/{sid}/notes/{id}", s.handleGetNote)
	mux.HandleFunc("PUT /api/sessions/{sid}/notes/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/sessions/{sid}/notes/{id}", s.handleDeleteNote)

	mux.HandleFunc("POST /api/sessions/{sid}/telemetry", s.handleCreateTelemetry)
	mux.HandleFunc("POST /api/sessions/{sid}/telemetry/batch", s.handleCreateTelemetryBatch)
	mux.HandleFunc("GET /api/sessions/{sid}/telemetry", s.handleQueryTelemetry)
	mux.HandleFunc("GET /api/sessions/{sid}/telemetry/latest", s.handleLatestTelemetry)
	mux.HandleFunc("GET /api/sessions/{sid}/telemetry/channels", s.handleListChannels)

	mux.HandleFunc("POST /api/sessions/{sid}/stt/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/sessions/{sid}/stt/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/sessions/{sid}/stt/tasks/{tid}", s.handleGetTask)
	mux.HandleFunc("PUT /api/sessions/{sid}/stt/tasks/{tid}", s.handleUpdateTask)

	mux.HandleFunc("GET /ws/sessions/{sid}", s.handleChannel)

	return s.withCORS(mux)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening. The server runs until the context is cancelled,
// then initiates a graceful shutdown with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// BaseContext derives all request contexts from the server
		// context, so cancelling ctx also cancels long-lived websocket
		// handlers during shutdown.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// withCORS applies the configured origin allow-list and answers
// preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// writeJSON encodes v with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeStoreError maps store sentinels to HTTP status codes: not-found
// conditions to 404, lifecycle conflicts to 409.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrNoteNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNoSamples):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrTaskFinished),
		errors.Is(err, store.ErrSessionEnded):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// timeParam parses an optional RFC 3339 query parameter.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &t, nil
}

// intParam parses an optional integer query parameter, returning def when
// absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
