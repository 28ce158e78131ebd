// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// WeatherHour is one hourly point of a forecast series. Immutable once
// produced.
type WeatherHour struct {
	Time        time.Time `json:"time"`
	TempC       float64   `json:"temp_c"`
	TempF       float64   `json:"temp_f"`
	ApparentC   float64   `json:"apparent_c"`
	PressureHPa float64   `json:"pressure_hpa"`
	WindKph     float64   `json:"wind_kph"`
	WindDeg     float64   `json:"wind_deg"`
	PrecipProb  float64   `json:"precip_prob"`
	Code        int       `json:"code"`
	Summary     string    `json:"summary"`
}

type TideTrend string

const (
	TideRising  TideTrend = "rising"
	TideFalling TideTrend = "falling"
	TideSlack   TideTrend = "slack"
)

type TidePrediction struct {
	Time    time.Time `json:"time"`
	HeightM float64   `json:"height_m"`
	Trend   TideTrend `json:"trend"`
}

// BiteWindow is a scored feeding window. Start/End are fixed offsets
// around a center instant (-45m/+60m).
type BiteWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Label     string    `json:"label"`
	Score     int       `json:"score"`
	Rationale string    `json:"rationale"`
}

// ForecastSourceSummary records provenance so callers can tell real
// upstream data from the synthetic fallback.
type ForecastSourceSummary struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	URL        string `json:"url,omitempty"`
	Disclaimer string `json:"disclaimer,omitempty"`
}

// EnvironmentDay is one day of environment data for a coordinate:
// hourly weather plus sun and moon context. Produced either by the
// upstream provider or the synthetic generator.
type EnvironmentDay struct {
	Timezone  string
	Hours     []WeatherHour
	Sunrise   time.Time
	Sunset    time.Time
	MoonPhase float64
}

type ForecastLocation struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timezone  string    `json:"timezone"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	MoonPhase float64   `json:"moon_phase"`
	MoonLabel string    `json:"moon_label"`
}

type WeatherSection struct {
	Hours  []WeatherHour         `json:"hours"`
	Source ForecastSourceSummary `json:"source"`
}

type TideSection struct {
	Predictions []TidePrediction      `json:"predictions"`
	Source      ForecastSourceSummary `json:"source"`
}

type BiteSection struct {
	Windows []BiteWindow `json:"windows"`
	Basis   string       `json:"basis"`
}

// ForecastBundle is the root forecast aggregate, keyed by rounded
// coordinate and immutable once built.
type ForecastBundle struct {
	Version     int              `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	Location    ForecastLocation `json:"location"`
	Weather     WeatherSection   `json:"weather"`
	Tide        TideSection      `json:"tide"`
	Bite        BiteSection      `json:"bite"`
}

// EnvironmentBands is the coarse discretization used as the aggregation
// key: three independent ordinal bands.
type EnvironmentBands struct {
	TimeOfDay string `json:"time_of_day"`
	Moon      string `json:"moon"`
	Pressure  string `json:"pressure"`
}

// Key joins the three band values into the slice key.
func (b EnvironmentBands) Key() string {
	return b.TimeOfDay + "|" + b.Moon + "|" + b.Pressure
}

func (b EnvironmentBands) Complete() bool {
	return b.TimeOfDay != "" && b.Moon != "" && b.Pressure != ""
}

// EnvironmentSnapshot carries the full environment fields needed to
// derive an EnvironmentBands triple.
type EnvironmentSnapshot struct {
	Time        time.Time `json:"time"`
	TzOffsetH   int       `json:"tz_offset_h"`
	TempC       float64   `json:"temp_c"`
	PressureHPa float64   `json:"pressure_hpa"`
	WindKph     float64   `json:"wind_kph"`
	PrecipProb  float64   `json:"precip_prob"`
	MoonPhase   float64   `json:"moon_phase"`
}

type EnvironmentSlice struct {
	OffsetHours int                 `json:"offset_hours"`
	Time        time.Time           `json:"timestamp_utc"`
	Snapshot    EnvironmentSnapshot `json:"snapshot"`
}

// CatchSample is one historical catch record as stored by the app's
// CRUD side. Optional fields are pointers; the aggregator drops samples
// it cannot band or date.
type CatchSample struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	CaughtAt *time.Time        `json:"caught_at,omitempty"`
	Bands    *EnvironmentBands `json:"bands,omitempty"`
	Coord    *Coordinate       `json:"coord,omitempty"`
}

// AnglerProfile is the subset of a user document that feeds the trust
// weight.
type AnglerProfile struct {
	Pro           bool `json:"pro"`
	TrophyCatches int  `json:"trophy_catches"`
}

type BiteSliceStats struct {
	Weight  float64 `json:"weight"`
	Samples int     `json:"samples"`
}

type BiteDirection string

const (
	BiteUp   BiteDirection = "up"
	BiteFlat BiteDirection = "flat"
	BiteDown BiteDirection = "down"
)

type BitePrediction struct {
	Label        string              `json:"label"`
	Direction    BiteDirection       `json:"direction"`
	Confidence   float64             `json:"confidence"`
	Snapshot     EnvironmentSnapshot `json:"snapshot"`
	Bands        EnvironmentBands    `json:"bands"`
	SliceWeight  float64             `json:"slice_weight"`
	SliceSamples int                 `json:"slice_samples"`
}

// BiteSignal is the per-location aggregate. Replaced wholesale on each
// recompute, never partially updated.
type BiteSignal struct {
	LocationKey  string                    `json:"location_key"`
	SampleSize   int                       `json:"sample_size"`
	TotalWeight  float64                   `json:"total_weight"`
	Slices       map[string]BiteSliceStats `json:"slices"`
	Predictions  []BitePrediction          `json:"predictions"`
	Insufficient bool                      `json:"insufficient"`
	Centroid     *Coordinate               `json:"centroid,omitempty"`
	ComputedAt   time.Time                 `json:"computed_at"`
	ExpiresAt    time.Time                 `json:"expires_at"`
}

// Fresh reports whether the signal's expiry is still in the future.
func (s *BiteSignal) Fresh(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}
