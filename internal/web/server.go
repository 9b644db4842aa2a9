// Package web serves the history engine over HTTP: a JSON API, CSV export,
// server-rendered HTML fragments and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/moldhistory/internal/config"
	"github.com/JonMunkholm/moldhistory/internal/history"
	"github.com/JonMunkholm/moldhistory/internal/web/middleware"
)

// Options tune the HTTP layer.
type Options struct {
	PageSize       int
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	ExportLimit    int
	TrustedProxies []string

	// ExportConcurrency and ExportWait bound simultaneous CSV exports.
	ExportConcurrency int
	ExportWait        time.Duration
}

// OptionsFromConfig maps service configuration to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PageSize:       cfg.History.PageSize,
		SessionTTL:     cfg.History.SessionTTL,
		RequestTimeout: cfg.Server.RequestTimeout,
		ExportLimit:    cfg.History.ExportLimit,
		TrustedProxies: cfg.Server.TrustedProxies,

		ExportConcurrency: cfg.History.ExportConcurrency,
		ExportWait:        cfg.History.ExportWait,
	}
}

// Server is the HTTP server for the history view.
type Server struct {
	store    *history.Store
	opts     Options
	sessions *sessionStore
	exports  *exportLimiter
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server over store. Call Close (or Shutdown) to stop
// the session janitor.
func NewServer(store *history.Store, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = history.DefaultPageSize
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		store:  store,
		opts:    opts,
		exports: newExportLimiter(opts.ExportConcurrency, opts.ExportWait),
		router:  chi.NewRouter(),
	}
	s.sessions = newSessionStore(opts.SessionTTL, func() *history.Engine {
		return history.NewEngine(store, history.WithPageSize(opts.PageSize))
	})
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.opts.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Get("/history", s.handleHistoryFragment)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Route("/history", func(r chi.Router) {
			// Stateless queries
			r.Get("/", s.handleQuery)
			r.Get("/export.csv", s.handleExport)

			// Session-scoped engine
			r.Get("/session", s.handleSessionPage)
			r.Post("/filter", s.handleSetFilter)
			r.Delete("/filter", s.handleResetFilter)
			r.Post("/sort", s.handleSetSort)
			r.Post("/page", s.handleSetPage)
		})
	})
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on cfg.Addr() until Shutdown is called.
func (s *Server) Start(cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", cfg.Addr())
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and the session janitor, then waits
// for running exports to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if n := s.exports.active(); n > 0 {
		slog.Info("waiting for exports to complete", "active", n)
		return s.exports.waitForDrain(ctx)
	}
	return nil
}

// Close stops background work without touching the listener.
func (s *Server) Close() {
	s.sessions.close()
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
