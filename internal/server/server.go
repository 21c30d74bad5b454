// Package server exposes the sync and analytics surfaces over HTTP. The
// web UI itself lives elsewhere; this is the JSON API it polls.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/guarzo/sellsync/internal/analytics"
	"github.com/guarzo/sellsync/internal/ebay"
	"github.com/guarzo/sellsync/internal/storage"
	"github.com/guarzo/sellsync/internal/sync"
)

// Config wires the server's collaborators.
type Config struct {
	Port      int
	Log       zerolog.Logger
	Store     storage.Gateway
	Sync      *sync.Service
	Runner    *sync.Runner
	Tokens    *ebay.TokenManager
	Analytics *analytics.Engine
	DevMode   bool
}

// Server is the HTTP front of the service.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	store     storage.Gateway
	sync      *sync.Service
	runner    *sync.Runner
	tokens    *ebay.TokenManager
	analytics *analytics.Engine
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		store:     cfg.Store,
		sync:      cfg.Sync,
		runner:    cfg.Runner,
		tokens:    cfg.Tokens,
		analytics: cfg.Analytics,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if !cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}

	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/sync/trigger", s.handleSyncTrigger)
		r.Get("/sync/status", s.handleSyncStatus)
		r.Get("/sync/jobs/{id}", s.handleSyncJob)
		r.Get("/analytics/overview", s.handleAnalyticsOverview)
		r.Get("/transactions", s.handleTransactions)
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
