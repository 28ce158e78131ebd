// Package router validates query parameters and dispatches API
// requests to the forecast and signal providers.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/core/observability"
	"github.com/hooksense/bitecast/internal/keys"
	mylog "github.com/hooksense/bitecast/internal/logger"
)

// ForecastProvider serves the cached forecast bundle for a coordinate.
type ForecastProvider interface {
	GetForecastBundle(ctx context.Context, lat, lon float64) (*model.ForecastBundle, error)
}

// SignalProvider serves the bite signal for a location key, refreshing
// it when stale and a coordinate is available.
type SignalProvider interface {
	GetOrRefresh(ctx context.Context, locationKey string, coord *model.Coordinate) (*model.BiteSignal, error)
}

func HandleForecast(logger *zerolog.Logger, p ForecastProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		coord, err := ParseCoordinate(r)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/forecast", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		bundle, err := p.GetForecastBundle(r.Context(), coord.Lat, coord.Lon)
		if err != nil {
			mylog.FromContext(r.Context(), logger).Error().Err(err).
				Float64("lat", coord.Lat).Float64("lon", coord.Lon).
				Msg("forecast bundle failed")
			http.Error(sw, "forecast unavailable", http.StatusBadGateway)
			observability.ObserveHTTP(r.Method, "/v1/forecast", sw.code, time.Since(start).Seconds())
			return
		}

		writeJSON(sw, http.StatusOK, bundle)
		observability.ObserveHTTP(r.Method, "/v1/forecast", sw.code, time.Since(start).Seconds())
	}
}

func HandleSignal(logger *zerolog.Logger, p SignalProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		key, coord, err := ParseSignalRequest(r)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/v1/signal", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		ctx := mylog.WithLocationKey(r.Context(), key)
		sig, err := p.GetOrRefresh(ctx, key, coord)
		if err != nil {
			mylog.FromContext(ctx, logger).Error().Err(err).
				Str("location_key", key).
				Msg("signal lookup failed")
			http.Error(sw, "signal unavailable", http.StatusBadGateway)
			observability.ObserveHTTP(r.Method, "/v1/signal", sw.code, time.Since(start).Seconds())
			return
		}
		if sig == nil {
			writeJSON(sw, http.StatusNotFound, map[string]string{
				"error":        "no signal for location",
				"location_key": key,
			})
			observability.ObserveHTTP(r.Method, "/v1/signal", sw.code, time.Since(start).Seconds())
			return
		}

		writeJSON(sw, http.StatusOK, sig)
		observability.ObserveHTTP(r.Method, "/v1/signal", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseCoordinate reads the required lat/lon query parameters.
func ParseCoordinate(r *http.Request) (model.Coordinate, error) {
	rawLat := strings.TrimSpace(r.URL.Query().Get("lat"))
	rawLon := strings.TrimSpace(r.URL.Query().Get("lon"))
	if rawLat == "" || rawLon == "" {
		return model.Coordinate{}, errors.New("missing required parameters: lat, lon")
	}

	lat, err := parseFloat(rawLat)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseFloat(rawLon)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lon: %w", err)
	}

	c := model.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return model.Coordinate{}, errors.New("lat must be in [-90,90] and lon in [-180,180]")
	}
	return c, nil
}

// ParseSignalRequest accepts either a location key, a lat/lon pair, or
// both. A bare key yields a nil coordinate, which limits the provider
// to the stale-tolerant read path.
func ParseSignalRequest(r *http.Request) (string, *model.Coordinate, error) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	rawLat := strings.TrimSpace(r.URL.Query().Get("lat"))
	rawLon := strings.TrimSpace(r.URL.Query().Get("lon"))

	hasCoord := rawLat != "" || rawLon != ""
	if key == "" && !hasCoord {
		return "", nil, errors.New("missing required parameters: key or lat,lon")
	}

	var coord *model.Coordinate
	if hasCoord {
		c, err := ParseCoordinate(r)
		if err != nil {
			return "", nil, err
		}
		coord = &c
		if key == "" {
			key = keys.Coord(c.Lat, c.Lon)
		}
	}
	return key, coord, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
