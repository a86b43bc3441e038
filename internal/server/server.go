// Package server provides the HTTP API for loreseek.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/loreseek/loreseek/internal/config"
	"github.com/loreseek/loreseek/internal/pipeline"
	"github.com/loreseek/loreseek/internal/storage"
	"github.com/loreseek/loreseek/internal/vectorcache"
)

// Server is the HTTP server for the loreseek API.
type Server struct {
	pipeline *pipeline.Pipeline
	cache    *vectorcache.Cache
	store    storage.PostStore
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	p *pipeline.Pipeline,
	cache *vectorcache.Cache,
	store storage.PostStore,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: p,
		cache:    cache,
		store:    store,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/query", s.handleQuery)
	r.Get("/api/v1/summary", s.handleSummary)
	r.Get("/api/v1/check-cache", s.handleCheckCache)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
