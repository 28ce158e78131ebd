// Package forecast composes weather, tide and bite-window data into
// cached, versioned bundles.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/bitewindows"
	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/core/observability"
	"github.com/hooksense/bitecast/internal/keys"
	"github.com/hooksense/bitecast/internal/synthetic"
	"github.com/hooksense/bitecast/internal/ttlcache"
)

// BundleVersion is stamped on every bundle so persisted or cached
// copies can be recognized across format changes.
const BundleVersion = 1

const maxHours = 24

// EnvironmentSource supplies one day of environment data, typically the
// Open-Meteo adapter.
type EnvironmentSource interface {
	Forecast(ctx context.Context, lat, lon float64) (model.EnvironmentDay, error)
	Source() model.ForecastSourceSummary
}

type Builder struct {
	env    EnvironmentSource
	cache  *ttlcache.Cache[string, *model.ForecastBundle]
	logger *zerolog.Logger
	now    func() time.Time
}

func New(env EnvironmentSource, ttl time.Duration, cacheSize int, logger *zerolog.Logger) (*Builder, error) {
	c, err := ttlcache.New[string, *model.ForecastBundle](ttl, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("forecast cache: %w", err)
	}
	return &Builder{env: env, cache: c, logger: logger, now: time.Now}, nil
}

// GetForecastBundle returns the bundle for a coordinate, serving from
// cache when a fresh one exists. Concurrent misses for the same rounded
// coordinate share a single build.
func (b *Builder) GetForecastBundle(ctx context.Context, lat, lon float64) (*model.ForecastBundle, error) {
	key := keys.Coord(lat, lon)
	if bundle, ok := b.cache.Get(key); ok {
		observability.IncForecastCacheHit()
		return bundle, nil
	}
	return b.cache.GetOrSet(key, func() (*model.ForecastBundle, error) {
		observability.IncForecastCacheMiss()
		return b.build(ctx, lat, lon), nil
	})
}

// build never fails: an unreachable upstream substitutes the synthetic
// generator, and tides and bite windows are always computed locally.
func (b *Builder) build(ctx context.Context, lat, lon float64) *model.ForecastBundle {
	now := b.now().UTC()

	day, err := b.env.Forecast(ctx, lat, lon)
	src := b.env.Source()
	if err != nil || len(day.Hours) == 0 {
		if err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).
				Msg("upstream forecast unavailable, using synthetic data")
		}
		observability.IncSyntheticFallback("weather")
		day = synthetic.Day(lat, lon, now)
		src = synthetic.WeatherSource()
	}

	if len(day.Hours) > maxHours {
		day.Hours = day.Hours[:maxHours]
	}
	if day.Sunrise.IsZero() || day.Sunset.IsZero() {
		day.Sunrise, day.Sunset = synthetic.SunTimes(lat, lon, now)
	}
	if day.Timezone == "" {
		day.Timezone = fmt.Sprintf("UTC%+d", synthetic.TimezoneOffset(lon))
	}

	windows := bitewindows.Compute(day.Sunrise, day.Sunset, day.MoonPhase, now)
	tides := synthetic.Tides(lat, lon, now)

	return &model.ForecastBundle{
		Version:     BundleVersion,
		GeneratedAt: now,
		Location: model.ForecastLocation{
			Lat:       lat,
			Lon:       lon,
			Timezone:  day.Timezone,
			Sunrise:   day.Sunrise,
			Sunset:    day.Sunset,
			MoonPhase: day.MoonPhase,
			MoonLabel: MoonLabel(day.MoonPhase),
		},
		Weather: model.WeatherSection{Hours: day.Hours, Source: src},
		Tide:    model.TideSection{Predictions: tides, Source: synthetic.TideSource()},
		Bite: model.BiteSection{
			Windows: windows,
			Basis: fmt.Sprintf("Solunar windows anchored to sunrise %s and sunset %s (moon phase %.2f)",
				day.Sunrise.Format("15:04"), day.Sunset.Format("15:04"), day.MoonPhase),
		},
	}
}

// MoonLabel names a phase fraction for display.
func MoonLabel(phase float64) string {
	switch {
	case phase <= 0.1 || phase >= 0.9:
		return "New moon"
	case phase >= 0.4 && phase <= 0.6:
		return "Full moon"
	case phase < 0.4:
		return "Waxing"
	default:
		return "Waning"
	}
}
