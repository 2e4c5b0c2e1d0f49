// Package server runs the HTTP front-end of the Google login flow.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"go.uber.org/zap"
)

// Server owns the listening http.Server
type Server struct {
	config  *config.ServerConfig
	handler http.Handler
}

// NewServer creates a server for handler using the server config section
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		config:  &cfg.Server,
		handler: handler,
	}
}

// Handler returns the root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until ctx is cancelled
// or the listener fails
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.ReadTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server", zap.String("address", ln.Addr().String()))

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", s.config.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
