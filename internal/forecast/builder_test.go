package forecast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/synthetic"
)

type fakeEnv struct {
	day   model.EnvironmentDay
	err   error
	calls atomic.Int32
}

func (f *fakeEnv) Forecast(ctx context.Context, lat, lon float64) (model.EnvironmentDay, error) {
	f.calls.Add(1)
	return f.day, f.err
}

func (f *fakeEnv) Source() model.ForecastSourceSummary {
	return model.ForecastSourceSummary{ID: "open-meteo", Label: "Open-Meteo forecast"}
}

func liveDay(base time.Time) model.EnvironmentDay {
	hours := make([]model.WeatherHour, 30)
	for i := range hours {
		hours[i] = model.WeatherHour{Time: base.Add(time.Duration(i) * time.Hour), TempC: 15}
	}
	return model.EnvironmentDay{
		Timezone:  "UTC",
		Hours:     hours,
		Sunrise:   base.Add(4 * time.Hour),
		Sunset:    base.Add(20 * time.Hour),
		MoonPhase: 0.3,
	}
}

func newBuilder(t *testing.T, env EnvironmentSource) *Builder {
	t.Helper()
	b, err := New(env, 5*time.Minute, 16, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestGetForecastBundle_UpstreamData(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	env := &fakeEnv{day: liveDay(base)}
	b := newBuilder(t, env)
	b.now = func() time.Time { return base.Add(8 * time.Hour) }

	bundle, err := b.GetForecastBundle(context.Background(), 59.33, 18.07)
	if err != nil {
		t.Fatalf("GetForecastBundle: %v", err)
	}
	if bundle.Weather.Source.ID != "open-meteo" {
		t.Fatalf("source = %q, want open-meteo", bundle.Weather.Source.ID)
	}
	if len(bundle.Weather.Hours) != 24 {
		t.Fatalf("hours = %d, want capped at 24", len(bundle.Weather.Hours))
	}
	if len(bundle.Tide.Predictions) != synthetic.TidePoints {
		t.Fatalf("tides = %d, want %d", len(bundle.Tide.Predictions), synthetic.TidePoints)
	}
	if len(bundle.Bite.Windows) == 0 {
		t.Fatalf("no bite windows computed")
	}
}

func TestGetForecastBundle_OutageFallsBackToSynthetic(t *testing.T) {
	env := &fakeEnv{err: errors.New("connection refused")}
	b := newBuilder(t, env)

	bundle, err := b.GetForecastBundle(context.Background(), 44.5, -63.6)
	if err != nil {
		t.Fatalf("GetForecastBundle: %v", err)
	}
	if bundle.Weather.Source.ID != "synthetic" {
		t.Fatalf("source = %q, want synthetic", bundle.Weather.Source.ID)
	}
	if len(bundle.Weather.Hours) != 24 {
		t.Fatalf("hours = %d, want 24", len(bundle.Weather.Hours))
	}
	if bundle.Location.Sunrise.IsZero() {
		t.Fatalf("sunrise missing on synthetic bundle")
	}
	if len(bundle.Bite.Windows) == 0 || len(bundle.Tide.Predictions) == 0 {
		t.Fatalf("windows/tides must not depend on the live fetch")
	}
}

func TestGetForecastBundle_EmptySeriesTreatedAsOutage(t *testing.T) {
	env := &fakeEnv{day: model.EnvironmentDay{Timezone: "UTC"}}
	b := newBuilder(t, env)

	bundle, err := b.GetForecastBundle(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("GetForecastBundle: %v", err)
	}
	if bundle.Weather.Source.ID != "synthetic" {
		t.Fatalf("source = %q, want synthetic", bundle.Weather.Source.ID)
	}
}

func TestGetForecastBundle_CachedByRoundedCoordinate(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	env := &fakeEnv{day: liveDay(base)}
	b := newBuilder(t, env)

	ctx := context.Background()
	if _, err := b.GetForecastBundle(ctx, 59.32932, 18.06858); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Differs only past the third decimal: same cache entry.
	if _, err := b.GetForecastBundle(ctx, 59.32931, 18.06857); err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := env.calls.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times, want 1", got)
	}

	if _, err := b.GetForecastBundle(ctx, 59.4, 18.1); err != nil {
		t.Fatalf("third: %v", err)
	}
	if got := env.calls.Load(); got != 2 {
		t.Fatalf("distinct coordinate did not fetch: calls=%d", got)
	}
}

func TestGetForecastBundle_ConcurrentMissesCoalesce(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	env := &fakeEnv{day: liveDay(base)}
	b := newBuilder(t, env)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.GetForecastBundle(context.Background(), 10.5, 10.5)
		}()
	}
	wg.Wait()

	if got := env.calls.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times under concurrent load, want 1", got)
	}
}

func TestSliceAdapter_DerivesForwardSlices(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	env := &fakeEnv{day: liveDay(base)}
	b := newBuilder(t, env)
	b.now = func() time.Time { return base.Add(6*time.Hour + 20*time.Minute) }

	a := NewSliceAdapter(b)
	got, err := a.Slices(context.Background(), model.Coordinate{Lat: 59.33, Lon: 18.07}, 3)
	if err != nil {
		t.Fatalf("Slices: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("slices = %d, want 3", len(got))
	}
	for i, s := range got {
		if s.OffsetHours != i {
			t.Fatalf("slice %d offset = %d", i, s.OffsetHours)
		}
		if !s.Time.Equal(base.Add(time.Duration(6+i) * time.Hour)) {
			t.Fatalf("slice %d time = %v", i, s.Time)
		}
		if s.Snapshot.MoonPhase != 0.3 {
			t.Fatalf("slice %d moon = %v, want 0.3", i, s.Snapshot.MoonPhase)
		}
	}
}
