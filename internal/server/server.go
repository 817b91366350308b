// Package server exposes scoring, adaptation and PDF parsing over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/spigell/matchcv/internal/ai"
	"github.com/spigell/matchcv/internal/ats"
	"github.com/spigell/matchcv/internal/resume"
)

const (
	defaultAddress         = ":8000"
	defaultMaxAdaptations  = 4
	defaultShutdownTimeout = 10 * time.Second
)

// DefaultAllowedOrigins are the development front ends.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000", "*"}

type Scorer interface {
	Score(ctx context.Context, candidateText, offerText string) (ats.Result, error)
}

type Adapter interface {
	Adapt(ctx context.Context, candidateText, offerText string) (*resume.Adaptation, error)
	Specs() []*ai.Spec
}

type Config struct {
	Address                  string
	AllowedOrigins           []string
	MaxConcurrentAdaptations int64
	ShutdownTimeout          time.Duration
}

type Server struct {
	cfg     Config
	engine  *gin.Engine
	scorer  Scorer
	adapter Adapter
	logger  *zap.Logger
	slots   *semaphore.Weighted
}

func New(cfg Config, scorer Scorer, adapter Adapter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.MaxConcurrentAdaptations <= 0 {
		cfg.MaxConcurrentAdaptations = defaultMaxAdaptations
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		scorer:  scorer,
		adapter: adapter,
		logger:  logger,
		slots:   semaphore.NewWeighted(cfg.MaxConcurrentAdaptations),
	}
	s.engine = s.router()
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()

	// CORS must run before anything can abort the request.
	r.Use(CORS(s.cfg.AllowedOrigins))
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(s.logger))
	r.Use(ErrorHandler(s.logger))

	r.GET("/", s.root)
	r.GET("/health", s.health)

	api := r.Group("/api")
	api.POST("/parse-pdf", s.parsePDF)
	api.POST("/score", s.score)
	api.POST("/adapt", s.adapt)
	api.GET("/providers", s.providers)

	return r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
