// Package api implements the HTTP API server for the docsign service.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/firmaria/docsign/internal/api/handlers"
	"github.com/firmaria/docsign/internal/api/middleware"
	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/events"
	"github.com/firmaria/docsign/internal/signing"
	"github.com/firmaria/docsign/internal/store"
	"github.com/firmaria/docsign/pkg/config"
)

// Version is the service version reported by the health endpoint. Overridden
// at build time via -ldflags.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// NewServer wires the handlers and middleware into a ready-to-start server.
func NewServer(cfg *config.Config, st store.Store, signingService *signing.Service, authService *auth.Service, broker *events.Broker, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		cfg:    cfg,
	}

	authHandler := handlers.NewAuthHandler(authService, logger)
	envelopeHandler := handlers.NewEnvelopeHandler(signingService, logger)
	signingHandler := handlers.NewSigningHandler(signingService, logger)
	eventsHandler := handlers.NewEventsHandler(signingService, broker, logger)
	healthHandler := handlers.NewHealthHandler(st, Version, logger)

	authMiddleware := middleware.NewAuthMiddleware(authService, logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogger(logger))
	s.router.Use(middleware.Recovery(logger))

	s.router.Get("/health", healthHandler.Health)

	s.router.Post("/auth/login", authHandler.Login)

	// Public signing surface. The capability token in the path is the only
	// credential; no session middleware applies.
	s.router.Route("/sign/{token}", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))
		r.Get("/", signingHandler.Show)
		r.Post("/", signingHandler.Act)
	})

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(middleware.StaffContext(st, logger))

		r.Route("/signatures", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermissionCreateEnvelope)).
				Post("/", envelopeHandler.Create)
			r.With(middleware.RequirePermission(auth.PermissionViewEnvelopes)).
				Get("/pending", envelopeHandler.ListPending)
			r.With(middleware.RequirePermission(auth.PermissionRunSweep)).
				Post("/sweep", envelopeHandler.Sweep)

			r.Route("/{envelopeID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermissionViewEnvelopes)).
					Get("/", envelopeHandler.Get)
				r.With(middleware.RequirePermission(auth.PermissionCancelEnvelope)).
					Post("/cancel", envelopeHandler.Cancel)
				r.With(middleware.RequirePermission(auth.PermissionSendReminder)).
					Post("/reminder", envelopeHandler.Remind)
				r.With(middleware.RequirePermission(auth.PermissionViewEnvelopes)).
					Get("/events", eventsHandler.Stream)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Router exposes the route tree, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}
