// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.

Route protection is layered. [middleware.Authenticate] only attaches verified
claims; the lifecycle gate turns them into a principal and rejects pending or
blocked accounts; password-current and admin checks nest inside it.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/activity"
	"github.com/taibuivan/portal/internal/admin"
	"github.com/taibuivan/portal/internal/platform/config"
	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/metrics"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/reports"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/visits"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when every dependency answers.
	Readiness http.HandlerFunc

	// Gate resolves the lifecycle-checked principal of each request.
	Gate *account.Gate

	// Account handles authentication, the caller's profile and the user list.
	Account *account.Handler

	// Access exposes capabilities and the area permission admin.
	Access *access.Handler

	// Admin is the privileged action gateway.
	Admin *admin.Handler

	// Reports serves and administers report links.
	Reports *reports.Handler

	// Activity records heartbeats and access logs.
	Activity *activity.Handler

	// Visits is the supervisor visit log.
	Visits *visits.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups. The context bounds the rate limiter sweeper.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, m *metrics.Metrics, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.ClientIP(cfg.TrustedProxyPrefixes()))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.SecureHeaders(cfg.IsProduction()))
	r.Use(m.Instrument)
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", metrics.Handler())

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Account.AuthRoutes())

		// The gateway authenticates the bearer itself
		api.Mount("/admin-actions", h.Admin.Routes())

		api.Group(func(member chi.Router) {
			member.Use(h.Gate.Resolve)

			// Reachable while a password change is pending
			member.Get("/me", h.Account.Me)
			member.Get("/me/capabilities", h.Access.Capabilities)

			member.Group(func(current chi.Router) {
				current.Use(account.RequirePasswordCurrent)

				current.Mount("/reports", h.Reports.Routes())
				current.Mount("/activity", h.Activity.Routes())
				current.Mount("/visits", h.Visits.Routes())

				current.Route("/admin", func(adm chi.Router) {
					adm.Use(account.RequireAdmin)
					adm.Mount("/users", h.Account.AdminRoutes())
					adm.Mount("/permissions", h.Access.AdminRoutes())
					adm.Mount("/reports", h.Reports.AdminRoutes())
					adm.Mount("/activity", h.Activity.AdminRoutes())
				})
			})
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
