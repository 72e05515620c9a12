// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves stored discovery runs as a read-only JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/internal/store"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// RunStore is the subset of the run history the API reads.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	Summary(ctx context.Context, runID string) (*store.RunSummary, error)
	Articles(ctx context.Context, runID string) ([]types.Article, error)
	Targets(ctx context.Context, runID string) ([]types.TargetRecord, error)
	Target(ctx context.Context, runID, key string) (*types.TargetRecord, error)
	SearchArticles(ctx context.Context, opts store.SearchOptions) ([]store.ArticleHit, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on :8080 with conservative timeouts.
func DefaultConfig() Config {
	return Config{
		Address:         ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the HTTP JSON API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	runs       RunStore
	metrics    *observability.Metrics
	logger     zerolog.Logger
	shutdown   time.Duration
}

// NewServer creates a server over runs. metrics may be nil, in which case
// /metrics is not mounted.
func NewServer(cfg Config, runs RunStore, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		runs:     runs,
		metrics:  metrics,
		logger:   observability.Component(logger, "http-server"),
		shutdown: cfg.ShutdownTimeout,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/runs", s.listRuns)
		r.Get("/search", s.searchArticles)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/articles", s.listArticles)
			r.Get("/targets", s.listTargets)
			r.Get("/targets/{key}", s.getTarget)
			r.Get("/targets/{key}/articles", s.getTargetArticles)
		})
	})

	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	s.logger.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")
	return s.httpServer.Serve(ln)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
