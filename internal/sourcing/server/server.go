// Package server exposes scoring results over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/dashboard"
	"github.com/build-flow-labs/vendorscore/internal/sourcing/pipeline"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// Record persists a snapshot set on every recompute.
	Record bool
}

// Server serves the vendor ranking API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	index  *dashboard.Index
	logger *slog.Logger
	router chi.Router

	runMu     sync.Mutex
	runs      atomic.Int64
	lastRunAt atomic.Value // time.Time
	lastError atomic.Value // string
}

// New creates a server. The index starts empty; call Refresh or Start to
// populate it.
func New(cfg Config, runner *pipeline.Runner, index *dashboard.Index, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		index:  index,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	r.Route("/api", func(r chi.Router) {
		r.Get("/vendors", s.handleListVendors)
		r.Get("/vendors/{vendorID}", s.handleVendorDetail)
		r.Get("/weights", s.handleGetWeights)
		r.Post("/weights", s.handleUpdateWeights)
		r.Post("/recompute", s.handleRecompute)
		r.Get("/summary", s.handleSummary)
		r.Get("/trends", s.handleTrends)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Refresh runs the pipeline and swaps the result into the index. Runs are
// serialized; a failed run leaves the previous index in place.
func (s *Server) Refresh(ctx context.Context) (*pipeline.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.runner.Run(ctx, pipeline.Options{Record: s.cfg.Record})
	if err != nil {
		s.lastError.Store(err.Error())
		return nil, err
	}
	now := res.Summary.GeneratedAt
	if now.IsZero() {
		now = time.Now()
	}
	weights := s.runner.Engine().Weights()
	if len(res.Analyses) > 0 {
		weights = res.Analyses[0].Score.Weights
	}
	s.index.Replace(res.Analyses, res.Summary, weights, now)
	s.runs.Add(1)
	s.lastRunAt.Store(now)
	s.lastError.Store("")
	return res, nil
}

// Start loads the index and serves until ctx is cancelled. A failed initial
// load is logged and the server starts with an empty index.
func (s *Server) Start(ctx context.Context) error {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial scoring run failed", "error", err)
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listener starting", "addr", s.cfg.Addr, "vendors", s.index.Count())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down api listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
