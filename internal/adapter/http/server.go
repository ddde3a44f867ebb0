package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/couchcryptid/drive-scout-service/internal/domain"
	"github.com/couchcryptid/drive-scout-service/internal/observability"
	"github.com/couchcryptid/drive-scout-service/internal/pipeline"
)

// Event listing routes. The second path keeps existing frontends working.
const (
	EventsPath       = "/api/events"
	LegacyEventsPath = "/.netlify/functions/get-mobilize-events"
)

// EventRunner produces the event listing for one request.
type EventRunner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Server exposes the events endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	events     EventRunner
	debug      bool
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server. debug enables the ?debug=true stats
// block on event responses.
func NewServer(addr string, events EventRunner, ready sharedobs.ReadinessChecker, debug bool, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      newCORS().Handler(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		events:  events,
		debug:   debug,
		logger:  logger,
		metrics: metrics,
	}

	for _, path := range []string{EventsPath, LegacyEventsPath} {
		mux.HandleFunc("GET "+path, s.handleEvents)
		mux.HandleFunc("OPTIONS "+path, s.handlePreflight)
	}
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// newCORS answers browser preflights and passes them on so the events
// handlers still write their fixed header set.
func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	})
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func setEventHeaders(h http.Header, requestID string) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Content-Type", "application/json")
	h.Set("X-Request-ID", requestID)
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	setEventHeaders(w.Header(), uuid.NewString())
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	setEventHeaders(w.Header(), requestID)
	logger := s.logger.With("request_id", requestID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("events handler panicked", "panic", rec)
			s.fail(w, fmt.Errorf("%v", rec))
		}
	}()

	result, err := s.events.Run(r.Context())
	if err != nil {
		logger.Error("fetch events failed", "error", err)
		s.fail(w, err)
		return
	}

	resp := domain.NewSuccessResponse(result.Events)
	if s.debug && r.URL.Query().Get("debug") == "true" {
		stats := result.Stats
		resp.DebugInfo = &stats
	}
	s.metrics.Requests.WithLabelValues("success").Inc()
	logger.Info("events served", "count", len(result.Events))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.metrics.Requests.WithLabelValues("failure").Inc()
	writeJSON(w, http.StatusInternalServerError, domain.NewFailureResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
