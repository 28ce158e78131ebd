// Package server wires the HTTP surface and runs it until shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/health"
	"github.com/hooksense/bitecast/internal/core/middleware"
	"github.com/hooksense/bitecast/internal/core/router"
)

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, addr string, logger *zerolog.Logger, forecasts router.ForecastProvider, signals router.SignalProvider, ping health.Pinger) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ping))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/v1/forecast", router.HandleForecast(logger, forecasts))
	r.Get("/v1/signal", router.HandleSignal(logger, signals))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
