// Package openmeteo fetches hourly forecasts and daily sun/moon data
// from an Open-Meteo style endpoint.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/core/observability"
)

// SourceID tags bundles built from live upstream data.
const SourceID = "open-meteo"

var (
	ErrEmptySeries = errors.New("openmeteo: empty hourly series")

	errStatus = errors.New("openmeteo: unexpected status")
)

type Client struct {
	base string
	http *http.Client
	cb   *gobreaker.CircuitBreaker
}

func New(base string, hc *http.Client) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{base: base, http: hc, cb: cb}
}

// Source describes the upstream for bundle provenance.
func (c *Client) Source() model.ForecastSourceSummary {
	return model.ForecastSourceSummary{
		ID:    SourceID,
		Label: "Open-Meteo forecast",
		URL:   "https://open-meteo.com/",
	}
}

type payload struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Apparent      []float64 `json:"apparent_temperature"`
		Pressure      []float64 `json:"surface_pressure"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
		WindDirection []float64 `json:"wind_direction_10m"`
		PrecipProb    []float64 `json:"precipitation_probability"`
		WeatherCode   []int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Sunrise   []string  `json:"sunrise"`
		Sunset    []string  `json:"sunset"`
		MoonPhase []float64 `json:"moon_phase"`
	} `json:"daily"`
}

// Forecast fetches one day of environment data for a coordinate. An
// empty hourly.time array is reported as ErrEmptySeries; callers treat
// it like any other failure.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (model.EnvironmentDay, error) {
	start := time.Now()
	res, err := c.cb.Execute(func() (any, error) {
		return c.fetch(ctx, lat, lon)
	})
	observability.ObserveUpstreamLatency("openmeteo", time.Since(start).Seconds())
	if err != nil {
		return model.EnvironmentDay{}, err
	}

	day, err := decode(res.(*payload))
	if err != nil {
		return model.EnvironmentDay{}, err
	}
	return day, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*payload, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("hourly", "temperature_2m,apparent_temperature,surface_pressure,wind_speed_10m,wind_direction_10m,precipitation_probability,weather_code")
	q.Set("daily", "sunrise,sunset,moon_phase")
	q.Set("timezone", "UTC")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openmeteo: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openmeteo: fetch: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("openmeteo: decode: %w", err)
	}
	return &p, nil
}

func decode(p *payload) (model.EnvironmentDay, error) {
	n := len(p.Hourly.Time)
	if n == 0 {
		return model.EnvironmentDay{}, ErrEmptySeries
	}

	hours := make([]model.WeatherHour, 0, n)
	for i, raw := range p.Hourly.Time {
		ts, err := parseTime(raw)
		if err != nil {
			return model.EnvironmentDay{}, fmt.Errorf("openmeteo: hourly time %d: %w", i, err)
		}
		h := model.WeatherHour{Time: ts}
		if i < len(p.Hourly.Temperature) {
			h.TempC = p.Hourly.Temperature[i]
			h.TempF = h.TempC*9/5 + 32
		}
		if i < len(p.Hourly.Apparent) {
			h.ApparentC = p.Hourly.Apparent[i]
		}
		if i < len(p.Hourly.Pressure) {
			h.PressureHPa = p.Hourly.Pressure[i]
		}
		if i < len(p.Hourly.WindSpeed) {
			h.WindKph = p.Hourly.WindSpeed[i]
		}
		if i < len(p.Hourly.WindDirection) {
			h.WindDeg = p.Hourly.WindDirection[i]
		}
		if i < len(p.Hourly.PrecipProb) {
			h.PrecipProb = p.Hourly.PrecipProb[i]
		}
		if i < len(p.Hourly.WeatherCode) {
			h.Code = p.Hourly.WeatherCode[i]
			h.Summary = model.SummaryForCode(h.Code)
		}
		hours = append(hours, h)
	}

	day := model.EnvironmentDay{
		Timezone: p.Timezone,
		Hours:    hours,
	}
	if len(p.Daily.Sunrise) > 0 {
		if ts, err := parseTime(p.Daily.Sunrise[0]); err == nil {
			day.Sunrise = ts
		}
	}
	if len(p.Daily.Sunset) > 0 {
		if ts, err := parseTime(p.Daily.Sunset[0]); err == nil {
			day.Sunset = ts
		}
	}
	if len(p.Daily.MoonPhase) > 0 {
		day.MoonPhase = p.Daily.MoonPhase[0]
	}
	return day, nil
}

// Open-Meteo emits minute-precision local ISO timestamps without a zone
// suffix; we request UTC.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
