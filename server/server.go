// Package server exposes the recommendation engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/planner/internal/metrics"
	"github.com/rustyeddy/planner/recommend"
)

// Recommender is the engine the server fronts.
type Recommender interface {
	Recommend(ctx context.Context, p recommend.Profile) (*recommend.Bundle, error)
	Model() string
}

// Config holds the listener settings
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Server is the planner HTTP API
type Server struct {
	router  *mux.Router
	server  *http.Server
	engine  Recommender
	log     logrus.FieldLogger
	metrics *metrics.Registry
	limiter *clientLimiter
	origins map[string]bool
	config  Config
}

// New wires the routes. log and reg may be nil.
func New(cfg Config, engine Recommender, log logrus.FieldLogger, reg *metrics.Registry) *Server {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Server{
		router:  mux.NewRouter(),
		engine:  engine,
		log:     log,
		metrics: reg,
		origins: make(map[string]bool, len(cfg.CORSOrigins)),
		config:  cfg,
	}
	for _, o := range cfg.CORSOrigins {
		s.origins[o] = true
	}
	if cfg.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	planning := api.PathPrefix("/api/planning").Subrouter()
	planning.Use(s.rateLimitMiddleware)
	planning.HandleFunc("/recommend", s.recommend).Methods(http.MethodPost)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.notFound)
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.corsMiddleware(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.limiter != nil {
		sweepCtx, stop := context.WithCancel(ctx)
		defer stop()
		go s.limiter.run(sweepCtx, s.limiter.ttl/2, s.log)
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.config.Addr).Info("starting HTTP server")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
