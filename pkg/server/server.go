package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/ganymede/pkg/config"
)

// Server runs the HTTP API with graceful shutdown.
type Server struct {
	cfg    config.ServerConfig
	http   *http.Server
	logger *slog.Logger
}

// New creates a Server for the given handler.
func New(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: slog.Default().With("component", "server"),
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "address", s.cfg.ListenAddress)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err

	case <-ctx.Done():
		s.logger.Info("http server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("graceful shutdown failed, closing", "error", err)
			return s.http.Close()
		}
		return nil
	}
}
