package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	RedisAddr string

	ForecastURL     string
	SliceURL        string
	UpstreamTimeout time.Duration

	ForecastTTL       time.Duration
	ForecastCacheSize int

	SignalTTL       time.Duration
	SignalRetention time.Duration
	SampleScanLimit int
	SampleMaxAge    time.Duration

	TrustTTL       time.Duration
	TrustCacheSize int

	StoreOpTimeout time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	signalTTL := getduration("SIGNAL_TTL", time.Hour)

	return Config{
		Addr:     getenv("ADDR", ":8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),

		ForecastURL:     getenv("FORECAST_API_URL", "https://api.open-meteo.com/v1/forecast"),
		SliceURL:        getenv("SLICE_API_URL", ""),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 4*time.Second),

		ForecastTTL:       getduration("FORECAST_TTL", 5*time.Minute),
		ForecastCacheSize: getint("FORECAST_CACHE_SIZE", 512),

		SignalTTL: signalTTL,
		// Stale signals must outlive their logical expiry so the read
		// path can fall back to them; keep them around well past TTL.
		SignalRetention: getduration("SIGNAL_RETENTION", 72*time.Hour),
		SampleScanLimit: getint("SAMPLE_SCAN_LIMIT", 250),
		SampleMaxAge:    getduration("SAMPLE_MAX_AGE", 30*24*time.Hour),

		TrustTTL:       getduration("TRUST_TTL", 15*time.Minute),
		TrustCacheSize: getint("TRUST_CACHE_SIZE", 2048),

		StoreOpTimeout: getduration("STORE_OP_TIMEOUT", 500*time.Millisecond),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "catch-reports"),
			GroupID: getenv("KAFKA_GROUP_ID", "signal-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
