// Package api exposes the analyzer, crawler, and profile store over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/crawler"
	"github.com/pagelore/pagelore/internal/profile"
	"github.com/pagelore/pagelore/internal/storage"
)

// SessionStore is the session persistence surface the API depends on.
type SessionStore interface {
	SaveSession(result *crawler.DeepScrapeResult) error
	ListSessions() ([]*storage.SessionSummary, error)
	GetSession(sessionID string) (*crawler.DeepScrapeResult, error)
	DeleteSession(sessionID string) error
	DeleteSessions() error
}

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	cfg      *config.CrawlConfig
	profiles profile.Store
	sessions SessionStore
	fetcher  crawler.Fetcher
	logger   *slog.Logger
}

// NewServer builds a Server. cfg supplies crawl defaults that request
// bodies may override; fetcher may be nil to use the HTTP default.
func NewServer(cfg *config.CrawlConfig, profiles profile.Store, sessions SessionStore, fetcher crawler.Fetcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if fetcher == nil {
		fetcher = crawler.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout)
	}
	return &Server{
		cfg:      cfg,
		profiles: profiles,
		sessions: sessions,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Router assembles the chi router with standard middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/crawl", s.handleCrawl)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Delete("/", s.handleDeleteSessions)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleDeleteSession)
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", s.handleListProfiles)
		r.Delete("/", s.handleClearProfiles)
		r.Get("/stats", s.handleProfileStats)
		r.Get("/domain/{domain}", s.handleProfileByDomain)
		r.Get("/{id}", s.handleGetProfile)
		r.Delete("/{id}", s.handleDeleteProfile)
		r.Post("/{id}/feedback", s.handleProfileFeedback)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
