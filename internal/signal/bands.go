package signal

import "github.com/hooksense/bitecast/internal/core/model"

// Band values for the three axes of an EnvironmentBands triple.
const (
	BandNight = "night"
	BandDawn  = "dawn"
	BandDay   = "day"
	BandDusk  = "dusk"

	BandMoonNew    = "new"
	BandMoonWaxing = "waxing"
	BandMoonFull   = "full"
	BandMoonWaning = "waning"

	BandPressureLow  = "low"
	BandPressureMid  = "mid"
	BandPressureHigh = "high"
)

const (
	pressureLowBelow  = 1009.0
	pressureHighAbove = 1019.0
)

// BandsFor discretizes a full environment snapshot into the band triple
// used as the aggregation key.
func BandsFor(s model.EnvironmentSnapshot) model.EnvironmentBands {
	return model.EnvironmentBands{
		TimeOfDay: timeOfDayBand(s),
		Moon:      MoonBand(s.MoonPhase),
		Pressure:  pressureBand(s.PressureHPa),
	}
}

func timeOfDayBand(s model.EnvironmentSnapshot) string {
	h := ((s.Time.UTC().Hour()+s.TzOffsetH)%24 + 24) % 24
	switch {
	case h >= 4 && h < 8:
		return BandDawn
	case h >= 8 && h < 17:
		return BandDay
	case h >= 17 && h < 21:
		return BandDusk
	default:
		return BandNight
	}
}

// MoonBand uses the same phase thresholds as the bite window scorer.
func MoonBand(phase float64) string {
	switch {
	case phase <= 0.1 || phase >= 0.9:
		return BandMoonNew
	case phase >= 0.4 && phase <= 0.6:
		return BandMoonFull
	case phase < 0.4:
		return BandMoonWaxing
	default:
		return BandMoonWaning
	}
}

func pressureBand(hpa float64) string {
	switch {
	case hpa < pressureLowBelow:
		return BandPressureLow
	case hpa > pressureHighAbove:
		return BandPressureHigh
	default:
		return BandPressureMid
	}
}
