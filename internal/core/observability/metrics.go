// Package observability registers and records Prometheus metrics.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream"},
	)

	forecastCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_cache_results_total",
			Help: "Forecast bundle cache results by outcome.",
		},
		[]string{"outcome"},
	)

	syntheticFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthetic_fallbacks_total",
			Help: "Times synthetic data substituted an unavailable upstream.",
		},
		[]string{"source"},
	)

	signalRecomputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_recompute_duration_seconds",
			Help:    "Duration of bite signal recomputes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	signalReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_reads_total",
			Help: "Bite signal reads by outcome (fresh, recomputed, stale, miss).",
		},
		[]string{"outcome"},
	)

	consumerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidation_consumer_errors_total",
			Help: "Errors in the catch-report invalidation consumer.",
		},
		[]string{"kind"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func IncForecastCacheHit()  { forecastCacheResults.WithLabelValues("hit").Inc() }
func IncForecastCacheMiss() { forecastCacheResults.WithLabelValues("miss").Inc() }

func IncSyntheticFallback(source string) {
	syntheticFallbacks.WithLabelValues(source).Inc()
}

func ObserveSignalRecompute(durationSeconds float64) {
	signalRecomputeSeconds.Observe(durationSeconds)
}

func IncSignalRead(outcome string) {
	signalReads.WithLabelValues(outcome).Inc()
}

func IncConsumerError(kind string) {
	consumerErrors.WithLabelValues(kind).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
