package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"resumatch/internal/matcher"
	"resumatch/internal/observability"
)

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if err := s.buildPipeline(om); err != nil {
		return err
	}
	defer s.closePipeline()

	httpServer := s.setupHTTPServer(om)
	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo(httpServer)

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)
	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability flushes telemetry
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// buildPipeline assembles the matching pipeline unless one was injected
func (s *Server) buildPipeline(om *observability.ObservabilityManager) error {
	if s.Components != nil {
		return nil
	}
	components, err := matcher.Build(s.AppConfig, s.Logger, om)
	if err != nil {
		return fmt.Errorf("failed to build matching pipeline: %w", err)
	}
	s.Components = components
	return nil
}

func (s *Server) closePipeline() {
	if s.Components == nil {
		return
	}
	if err := s.Components.Close(); err != nil {
		s.Logger.LogError(err, "Failed to release pipeline resources")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(om),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

const shutdownGrace = 30 * time.Second

// startWithGracefulShutdown serves until ctx is done or the listener fails.
// Either way the rate limiter's eviction loop is stopped before returning.
func (s *Server) startWithGracefulShutdown(ctx context.Context, httpServer *http.Server) error {
	defer s.cleanupRateLimiter()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info("Starting HTTP server",
			"address", httpServer.Addr,
			"tls_enabled", httpServer.TLSConfig != nil)

		var err error
		if httpServer.TLSConfig != nil {
			// certificates are already in TLSConfig
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// listener failed, nothing to drain
			return nil
		}
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.shutdown(httpServer)
	})
	return g.Wait()
}

func (s *Server) shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return httpServer.Close()
	}
	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
