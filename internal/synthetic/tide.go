package synthetic

import (
	"math"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

const (
	// TidePoints and TideSpacing fix the cardinality of every generated
	// tide series.
	TidePoints  = 10
	TideSpacing = 3 * time.Hour

	// Principal lunar semidiurnal period.
	lunarPeriodHours = 12.42

	slackBand = 0.05
)

// TideSource identifies synthetic tide data in bundle provenance.
func TideSource() model.ForecastSourceSummary {
	return model.ForecastSourceSummary{
		ID:         "synthetic-tide",
		Label:      "Synthetic tide curve",
		Disclaimer: "Simplified harmonic approximation; not suitable for navigation.",
	}
}

// Tides generates a deterministic 10-point tide curve for a coordinate,
// spaced 3 hours apart starting at base truncated to the hour.
// Amplitude stays within [0.8, 1.9] meters.
func Tides(lat, lon float64, base time.Time) []model.TidePrediction {
	amp := 0.8 + 1.1*math.Abs(math.Sin(0.12*(lat+lon)))
	phaseOffset := math.Sin(0.4*lat+0.17*lon) * math.Pi

	start := base.UTC().Truncate(time.Hour)

	out := make([]model.TidePrediction, 0, TidePoints)
	for i := range TidePoints {
		t := start.Add(time.Duration(i) * TideSpacing)
		hours := float64(t.Unix()) / 3600
		angle := 2*math.Pi*hours/lunarPeriodHours + phaseOffset

		deriv := amp * math.Cos(angle)
		trend := model.TideSlack
		if math.Abs(deriv) >= slackBand {
			if deriv > 0 {
				trend = model.TideRising
			} else {
				trend = model.TideFalling
			}
		}

		out = append(out, model.TidePrediction{
			Time:    t,
			HeightM: math.Round(amp*math.Sin(angle)*100) / 100,
			Trend:   trend,
		})
	}
	return out
}
