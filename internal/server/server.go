// Package server exposes the close-out campaign endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/closeout/internal/config"
	"github.com/raphaelgruber/closeout/internal/metrics"
	"github.com/raphaelgruber/closeout/internal/service"
)

// Dependencies holds the services shared by handlers.
type Dependencies struct {
	Closeout   *service.CloseoutService
	Booking    *service.BookingService
	Resolver   *service.Resolver
	Summarizer *service.Summarizer
	Metrics    *metrics.Collector
	Campaign   config.Campaign
	Logger     *slog.Logger
}

// Server wraps the HTTP server with dependencies and lifecycle management.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New creates a server listening on addr.
func New(addr, version string, deps *Dependencies) *Server {
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(version, deps),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second, // generation calls are slow
			IdleTimeout:  120 * time.Second,
		},
		logger: deps.Logger,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// NewRouter registers all routes. Campaign routes live under /{campaign slug}/.
func NewRouter(version string, deps *Dependencies) http.Handler {
	h := &handler{deps: deps, version: version}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /stats", h.stats)

	mux.HandleFunc("POST /{campaign}/after-call", h.campaign(h.afterCall))
	mux.HandleFunc("POST /{campaign}/agendar-cita-disponibilidad", h.campaign(h.scheduleVisit))
	mux.HandleFunc("POST /{campaign}/cotizar-evento", h.campaign(h.quoteEvent))
	mux.HandleFunc("POST /{campaign}/multiplica-numeros", h.campaign(h.multiply))
	mux.HandleFunc("POST /{campaign}/resolve-datetime", h.campaign(h.resolveDatetime))
	mux.HandleFunc("POST /{campaign}/summarize", h.campaign(h.summarize))

	return Recover(deps.Logger, LoggingMiddleware(deps.Logger, mux))
}
