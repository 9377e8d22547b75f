// Package web provides the HTTP server and handlers for the admin console.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/config"
	"github.com/salvationministries/console/internal/core"
	wm "github.com/salvationministries/console/internal/web/middleware"
)

// Dependencies are the optional collaborators of a Server.
type Dependencies struct {
	// Limiter is the backend request limiter reported by /healthz.
	Limiter *api.RequestLimiter

	// Registry serves /metrics and receives the HTTP collectors. Nil
	// disables both.
	Registry *prometheus.Registry
}

// Server is the HTTP server for the admin console.
type Server struct {
	service *core.Service
	cfg     *config.Config
	deps    Dependencies
	router  *chi.Mux
	server  *http.Server

	limiter         *rateLimiter
	mutationLimiter *rateLimiter
	stop            chan struct{}
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config, deps Dependencies) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		deps:    deps,
		router:  chi.NewRouter(),
		stop:    make(chan struct{}),
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.mutationLimiter = newRateLimiter(cfg.Rate.MutationLimit, time.Minute)
		go s.limiter.run(s.stop)
		go s.mutationLimiter.run(s.stop)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(wm.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(wm.Logger)
	s.router.Use(middleware.Recoverer)
	if s.deps.Registry != nil {
		s.router.Use(wm.NewHTTPMetrics(s.deps.Registry).Middleware)
	}
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.deps.Registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(clientInfo)
		r.Use(wm.Session(s.service, wm.SessionOptions{
			Cookie:   s.cfg.Backend.SessionCookie,
			Required: s.cfg.Security.RequireSession,
			OnError:  s.respondError,
		}))

		// Pages
		r.Get("/", s.handleDashboard)
		r.Post("/logout", s.handleLogout)
		r.Get("/audit-log", s.handleAuditLog)
		r.Get("/audit-log/export", s.handleAuditLogExport)

		r.Route("/r/{resource}", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/sort/{field}", s.handleSort)
			r.Get("/export", s.handleExport)
			r.Get("/summary", s.handleSummary)
			r.Get("/new", s.handleNew)
			r.Get("/{id}/edit", s.handleEdit)
			r.Get("/{id}/delete", s.handleDeleteConfirm)

			r.Group(func(r chi.Router) {
				if s.mutationLimiter != nil {
					r.Use(s.mutationLimiter.middleware)
				}
				r.Post("/", s.handleCreate)
				r.Post("/{id}", s.handleUpdate)
				r.Post("/{id}/delete", s.handleDelete)
			})
		})

		// API routes
		r.Route("/api", func(r chi.Router) {
			r.Get("/resources", s.handleListResources)
			r.Get("/r/{resource}", s.handleAPIView)
			r.Get("/r/{resource}/summary", s.handleSummary)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// contentSecurityPolicy allows the HTMX script and inline styles only.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; frame-ancestors 'none'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
