package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/univerify/univerify/internal/handlers"
	"github.com/univerify/univerify/internal/metrics"
	"github.com/univerify/univerify/internal/middleware"
)

// shutdownTimeout bounds how long in-flight requests may take after the
// serve context is canceled.
const shutdownTimeout = 10 * time.Second

// Handler returns the verification server routes wrapped in the middleware
// chain (recovery, logging, security headers, metrics).
func (a *App) Handler() http.Handler {
	startTime := time.Now()

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewHistoryCollector(a.DB))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /verify/{documentId}/{hash}", handlers.VerifyHandler(a))
	mux.HandleFunc("GET /health", handlers.HealthHandler(a.Client, a.Repos.Health, Version, startTime))
	mux.HandleFunc("GET /health/live", handlers.HealthLivenessHandler(a.Repos.Health))
	mux.Handle("GET /metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, registry},
		promhttp.HandlerOpts{},
	))

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware,
		middleware.LoggingMiddleware,
		middleware.SecurityHeadersMiddleware,
		metrics.Middleware,
	)
}

// Serve runs the verification server on the configured address until ctx is
// canceled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.Config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.Config.ListenAddr, err)
	}
	return a.ServeListener(ctx, listener)
}

// ServeListener is Serve on an existing listener.
func (a *App) ServeListener(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.Config.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "address", listener.Addr().String())
		serverErrors <- server.Serve(listener)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		a.Logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		a.Logger.Info("server shutdown complete")
		return nil
	}
}
