package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hooksense/bitecast/internal/core/config"
	"github.com/hooksense/bitecast/internal/core/httpclient"
	"github.com/hooksense/bitecast/internal/core/observability"
	"github.com/hooksense/bitecast/internal/core/server"
	"github.com/hooksense/bitecast/internal/forecast"
	"github.com/hooksense/bitecast/internal/invalidation/kafkaconsumer"
	"github.com/hooksense/bitecast/internal/logger"
	"github.com/hooksense/bitecast/internal/redisstore"
	sig "github.com/hooksense/bitecast/internal/signal"
	"github.com/hooksense/bitecast/internal/signal/samplestore"
	"github.com/hooksense/bitecast/internal/signal/signalstore"
	"github.com/hooksense/bitecast/internal/upstream/openmeteo"
	"github.com/hooksense/bitecast/internal/upstream/slices"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.EqualFold(os.Getenv("LOG_CONSOLE"), "true"),
		Component: "bitecast",
	}, os.Stdout)

	observability.ExposeBuildInfo(Version)
	zl.Info().
		Str("addr", cfg.Addr).
		Str("version", Version).
		Str("forecast_api", cfg.ForecastURL).
		Str("redis", cfg.RedisAddr).
		Msg("starting bitecast")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hc := httpclient.NewOutbound(cfg.UpstreamTimeout)
	weather := openmeteo.New(cfg.ForecastURL, hc)

	builder, err := forecast.New(weather, cfg.ForecastTTL, cfg.ForecastCacheSize, &zl)
	if err != nil {
		zl.Error().Err(err).Msg("forecast builder setup failed")
		return 1
	}

	rcli, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		zl.Error().Err(err).Str("redis", cfg.RedisAddr).Msg("redis connect failed")
		return 1
	}
	defer func() { _ = rcli.Close() }()

	sigStore := signalstore.New(rcli, cfg.SignalRetention, cfg.StoreOpTimeout)
	samples := samplestore.New(rcli, cfg.StoreOpTimeout, &zl)

	trust, err := sig.NewTrustResolver(samples, cfg.TrustTTL, cfg.TrustCacheSize, &zl)
	if err != nil {
		zl.Error().Err(err).Msg("trust resolver setup failed")
		return 1
	}

	// Environment slices come from the slice API when one is configured,
	// otherwise they are derived from our own forecast bundles.
	var sliceSrc sig.SliceSource
	if cfg.SliceURL != "" {
		sliceSrc = slices.New(cfg.SliceURL, hc, &zl)
	} else {
		sliceSrc = forecast.NewSliceAdapter(builder)
	}

	agg := sig.NewAggregator(samples, sliceSrc, sigStore, trust, sig.Config{
		ScanLimit: cfg.SampleScanLimit,
		MaxAge:    cfg.SampleMaxAge,
		TTL:       cfg.SignalTTL,
	}, &zl)

	if cfg.Invalidation.Enabled {
		consumer := kafkaconsumer.New(
			kafkaconsumer.NewConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			sigStore, &zl)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				zl.Error().Err(err).Msg("catch-report consumer stopped")
			}
		}()
	}

	if err := server.Run(ctx, cfg.Addr, &zl, builder, agg, rcli); err != nil {
		zl.Error().Err(err).Msg("http server failed")
		return 1
	}
	zl.Info().Msg("shutdown complete")
	return 0
}
