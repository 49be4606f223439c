// Package server exposes comparisons and history over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/comparator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SessionVerifier resolves an Authorization header to a session.
type SessionVerifier interface {
	Session(header string) (comparator.Session, error)
}

// Server is the comparator HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Config holds the dependencies and settings for a Server. Verifier may be
// nil, in which case every request is anonymous. Nil telemetry providers
// fall back to the otel globals.
type Config struct {
	Service  *comparator.Service
	Verifier SessionVerifier
	Logger   *slog.Logger

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator

	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// New creates a Server with all routes configured.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	h := &handlers{service: cfg.Service, logger: logger, maxBody: maxBody}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/ai/compare", h.compare)
	mux.HandleFunc("POST /api/ai/compare-with-rubric", h.compareWithRubric)
	mux.HandleFunc("POST /api/ai/{provider}", h.single)
	mux.HandleFunc("GET /api/users/queries", h.history)
	mux.HandleFunc("GET /api/users/queries/{id}/replay", h.replay)

	// request ID → tracing → session → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(logger, handler)
	handler = loggingMiddleware(logger, handler)
	handler = sessionMiddleware(cfg.Verifier, logger, handler)
	handler = tracingMiddleware(newTelemetry(cfg.TracerProvider, cfg.MeterProvider, cfg.Propagator), mux, handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  logger,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
