package forecast

import (
	"context"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/synthetic"
)

// SliceAdapter derives forward environment slices from forecast
// bundles, so the signal aggregator can score samples against the same
// upstream/synthetic machinery the forecast path uses. Used when no
// dedicated slice endpoint is configured.
type SliceAdapter struct {
	b *Builder
}

func NewSliceAdapter(b *Builder) *SliceAdapter {
	return &SliceAdapter{b: b}
}

// Slices returns up to hours forward slices starting at the current
// hour. A coordinate the builder cannot answer for degrades to nil
// rather than an error.
func (a *SliceAdapter) Slices(ctx context.Context, coord model.Coordinate, hours int) ([]model.EnvironmentSlice, error) {
	bundle, err := a.b.GetForecastBundle(ctx, coord.Lat, coord.Lon)
	if err != nil || bundle == nil {
		return nil, nil
	}

	byHour := make(map[time.Time]model.WeatherHour, len(bundle.Weather.Hours))
	for _, h := range bundle.Weather.Hours {
		byHour[h.Time.UTC().Truncate(time.Hour)] = h
	}

	start := a.b.now().UTC().Truncate(time.Hour)
	tzOff := synthetic.TimezoneOffset(coord.Lon)

	out := make([]model.EnvironmentSlice, 0, hours)
	for off := range hours {
		t := start.Add(time.Duration(off) * time.Hour)
		h, ok := byHour[t]
		if !ok {
			continue
		}
		out = append(out, model.EnvironmentSlice{
			OffsetHours: off,
			Time:        t,
			Snapshot: model.EnvironmentSnapshot{
				Time:        t,
				TzOffsetH:   tzOff,
				TempC:       h.TempC,
				PressureHPa: h.PressureHPa,
				WindKph:     h.WindKph,
				PrecipProb:  h.PrecipProb,
				MoonPhase:   bundle.Location.MoonPhase,
			},
		})
	}
	return out, nil
}
