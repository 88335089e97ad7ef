package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"covidcli/internal/config"
)

// Server wraps the HTTP server with the configured timeouts
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the dashboard server from configuration
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called. A closed server is not an error.
func (s *Server) Start() error {
	s.logger.Info("dashboard server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("dashboard server shutting down")
	return s.httpServer.Shutdown(ctx)
}
