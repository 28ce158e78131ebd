// Package synthetic generates deterministic, plausible environment data
// for coordinates the upstream provider cannot answer for. Same inputs
// always produce identical output.
package synthetic

import (
	"fmt"
	"math"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

const (
	// Synodic month against the 2000-01-06 18:14 UTC new moon.
	synodicMonthDays = 29.530588853

	hoursPerDay = 24
)

var newMoonEpoch = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// WeatherSource identifies synthetic weather data in bundle provenance.
func WeatherSource() model.ForecastSourceSummary {
	return model.ForecastSourceSummary{
		ID:         "synthetic",
		Label:      "Synthetic estimate",
		Disclaimer: "Upstream forecast unavailable; values are locally modeled estimates.",
	}
}

// MoonPhase returns the moon phase fraction in [0,1) at t, 0 being new
// moon and 0.5 full.
func MoonPhase(t time.Time) float64 {
	days := t.Sub(newMoonEpoch).Hours() / hoursPerDay
	f := math.Mod(days/synodicMonthDays, 1)
	if f < 0 {
		f++
	}
	return f
}

// TimezoneOffset derives a whole-hour offset from longitude, clamped to
// [-12, 12].
func TimezoneOffset(lon float64) int {
	off := int(math.Round(lon / 15))
	if off < -12 {
		off = -12
	}
	if off > 12 {
		off = 12
	}
	return off
}

// Day builds one deterministic day of hourly weather plus sun and moon
// context for a coordinate. The series starts at base truncated to the
// hour and spans 24 hours.
func Day(lat, lon float64, base time.Time) model.EnvironmentDay {
	start := base.UTC().Truncate(time.Hour)
	off := TimezoneOffset(lon)

	// Poles cooler; the diurnal swing rides on top of the latitude
	// baseline. The coordinate-seeded phase keeps neighboring points
	// locally smooth but globally varied.
	baseTemp := 27 - math.Abs(lat)*0.45
	phase := lat*0.7 + lon*0.13

	hours := make([]model.WeatherHour, 0, hoursPerDay)
	for h := range hoursPerDay {
		t := start.Add(time.Duration(h) * time.Hour)
		localH := float64((t.Hour() + off + hoursPerDay) % hoursPerDay)

		diurnal := 6 * math.Sin((localH-9)/hoursPerDay*2*math.Pi)
		temp := baseTemp + diurnal + 1.5*math.Sin(phase+0.3*float64(h))
		wind := 8 + 7*math.Abs(math.Sin(0.37*float64(h)+1.3*phase))
		precip := math.Round(45 + 45*math.Sin(0.29*float64(h)+2.1*phase))
		if precip < 0 {
			precip = 0
		}
		code := codeFor(precip, temp)

		hours = append(hours, model.WeatherHour{
			Time:        t,
			TempC:       round1(temp),
			TempF:       round1(temp*9/5 + 32),
			ApparentC:   round1(temp - wind*0.12),
			PressureHPa: round1(1013 + 9*math.Sin(0.21*float64(h)+phase)),
			WindKph:     round1(wind),
			WindDeg:     math.Round(math.Mod(math.Abs(phase)*57+14*float64(h), 360)),
			PrecipProb:  precip,
			Code:        code,
			Summary:     model.SummaryForCode(code),
		})
	}

	sunrise, sunset := SunTimes(lat, lon, start)

	return model.EnvironmentDay{
		Timezone:  fmt.Sprintf("UTC%+d", off),
		Hours:     hours,
		Sunrise:   sunrise,
		Sunset:    sunset,
		MoonPhase: MoonPhase(start),
	}
}

// SunTimes approximates sunrise and sunset from latitude (day length)
// and longitude (solar noon). Not an ephemeris; close enough to anchor
// feeding windows.
func SunTimes(lat, lon float64, day time.Time) (time.Time, time.Time) {
	doy := float64(day.YearDay())
	seasonal := math.Sin(2 * math.Pi * (doy - 80) / 365.25)

	dayLen := 12 + 4*(lat/90)*seasonal
	if dayLen < 4 {
		dayLen = 4
	}
	if dayLen > 20 {
		dayLen = 20
	}

	noonUTC := 12 - lon/15
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	sunrise := midnight.Add(time.Duration((noonUTC - dayLen/2) * float64(time.Hour)))
	sunset := midnight.Add(time.Duration((noonUTC + dayLen/2) * float64(time.Hour)))
	return sunrise, sunset
}

func codeFor(precip, temp float64) int {
	freezing := temp < 0
	switch {
	case precip >= 70:
		if freezing {
			return 75
		}
		return 65
	case precip >= 40:
		if freezing {
			return 71
		}
		return 61
	case precip >= 20:
		return 3
	default:
		return 1
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
