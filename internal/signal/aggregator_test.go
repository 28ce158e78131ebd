package signal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

type fakeSamples struct {
	batch []model.CatchSample
	err   error
}

func (f *fakeSamples) Samples(context.Context, string, int) ([]model.CatchSample, error) {
	return f.batch, f.err
}

type fakeSlices struct {
	slices []model.EnvironmentSlice
	err    error
}

func (f *fakeSlices) Slices(context.Context, model.Coordinate, int) ([]model.EnvironmentSlice, error) {
	return f.slices, f.err
}

type memStore struct {
	signals map[string]*model.BiteSignal
	putErr  error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{signals: make(map[string]*model.BiteSignal)}
}

func (s *memStore) Get(_ context.Context, key string) (*model.BiteSignal, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.signals[key], nil
}

func (s *memStore) Put(_ context.Context, key string, sig *model.BiteSignal) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.signals[key] = sig
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.signals, key)
	return nil
}

var aggNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func dawnFullMidSample(user string, coord *model.Coordinate) model.CatchSample {
	at := aggNow.Add(-6 * time.Hour)
	return model.CatchSample{
		UserID:   user,
		CaughtAt: &at,
		Bands:    bands(BandDawn, BandMoonFull, BandPressureMid),
		Coord:    coord,
	}
}

func newTestAggregator(samples SampleSource, slices SliceSource, store Store, profiles TrustSource) *Aggregator {
	trust, err := NewTrustResolver(profiles, time.Minute, 64, nil)
	if err != nil {
		panic(err)
	}
	a := NewAggregator(samples, slices, store, trust, Config{}, nil)
	a.now = func() time.Time { return aggNow }
	return a
}

func forwardSlices() []model.EnvironmentSlice {
	var out []model.EnvironmentSlice
	for off := 0; off <= 3; off++ {
		snap := model.EnvironmentSnapshot{
			// Local hour 5 + offset keeps the first slices in dawn.
			Time:        time.Date(2024, 6, 10, 5+off, 0, 0, 0, time.UTC),
			PressureHPa: 1013,
			MoonPhase:   0.5,
		}
		out = append(out, model.EnvironmentSlice{OffsetHours: off, Time: snap.Time, Snapshot: snap})
	}
	return out
}

func TestRecompute_BuildsAndPersistsSignal(t *testing.T) {
	batch := []model.CatchSample{
		dawnFullMidSample("pro", &model.Coordinate{Lat: 58.4, Lon: 14.6}),
		dawnFullMidSample("plain", nil),
		dawnFullMidSample("plain", nil),
		dawnFullMidSample("plain", nil),
		dawnFullMidSample("plain", nil),
		dawnFullMidSample("plain", nil),
	}
	store := newMemStore()
	profiles := &fakeProfiles{profiles: map[string]model.AnglerProfile{"pro": {Pro: true}}}
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{slices: forwardSlices()}, store, profiles)

	sig, err := a.Recompute(context.Background(), "58.400:14.600", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if sig.SampleSize != 6 {
		t.Fatalf("sampleSize = %d, want 6", sig.SampleSize)
	}
	if math.Abs(sig.TotalWeight-6.5) > 1e-9 {
		t.Fatalf("totalWeight = %v, want 6.5", sig.TotalWeight)
	}
	if sig.Insufficient {
		t.Fatalf("6-sample single-slice signal flagged insufficient")
	}
	if len(sig.Predictions) != 4 {
		t.Fatalf("predictions = %d, want 4", len(sig.Predictions))
	}
	if sig.Centroid == nil || sig.Centroid.Lat != 58.4 {
		t.Fatalf("centroid = %+v, want fallback to first sample coordinate", sig.Centroid)
	}
	if !sig.ExpiresAt.Equal(aggNow.Add(time.Hour)) {
		t.Fatalf("expiresAt = %v, want now+1h", sig.ExpiresAt)
	}
	if store.signals["58.400:14.600"] != sig {
		t.Fatalf("signal not persisted under its location key")
	}
}

func TestRecompute_TotalsMatchSliceSums(t *testing.T) {
	coords := &model.Coordinate{Lat: 58.4, Lon: 14.6}
	batch := []model.CatchSample{
		dawnFullMidSample("pro", coords),
		dawnFullMidSample("plain", nil),
	}
	at := aggNow.Add(-20 * time.Hour)
	batch = append(batch, model.CatchSample{
		UserID: "pro", CaughtAt: &at,
		Bands: bands(BandNight, BandMoonNew, BandPressureLow),
	})
	profiles := &fakeProfiles{profiles: map[string]model.AnglerProfile{"pro": {Pro: true, TrophyCatches: 2}}}
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{}, newMemStore(), profiles)

	sig, err := a.Recompute(context.Background(), "58.400:14.600", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	var wSum float64
	var nSum int
	for _, st := range sig.Slices {
		wSum += st.Weight
		nSum += st.Samples
	}
	if math.Abs(wSum-sig.TotalWeight) > 1e-9 || nSum != sig.SampleSize {
		t.Fatalf("totals (%v, %d) disagree with slice sums (%v, %d)",
			sig.TotalWeight, sig.SampleSize, wSum, nSum)
	}
}

func TestRecompute_FewSamplesFlaggedInsufficient(t *testing.T) {
	batch := []model.CatchSample{
		dawnFullMidSample("plain", &model.Coordinate{Lat: 58.4, Lon: 14.6}),
		dawnFullMidSample("plain", nil),
	}
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{slices: forwardSlices()}, newMemStore(), &fakeProfiles{})

	sig, err := a.Recompute(context.Background(), "58.400:14.600", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !sig.Insufficient {
		t.Fatalf("2-sample signal not flagged insufficient")
	}
	if sig.SampleSize != 2 {
		t.Fatalf("sampleSize = %d, want 2", sig.SampleSize)
	}
}

func TestRecompute_NoRelevantPredictionsIsInsufficient(t *testing.T) {
	// Plenty of samples, but all forward slices miss the matrix.
	var batch []model.CatchSample
	for i := 0; i < 8; i++ {
		batch = append(batch, dawnFullMidSample("plain", &model.Coordinate{Lat: 1, Lon: 1}))
	}
	nightSnap := model.EnvironmentSnapshot{
		Time:        time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC),
		PressureHPa: 1030,
		MoonPhase:   0.0,
	}
	slices := &fakeSlices{slices: []model.EnvironmentSlice{
		{OffsetHours: 0, Time: nightSnap.Time, Snapshot: nightSnap},
	}}
	a := newTestAggregator(&fakeSamples{batch: batch}, slices, newMemStore(), &fakeProfiles{})

	sig, err := a.Recompute(context.Background(), "1.000:1.000", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if !sig.Insufficient {
		t.Fatalf("signal with no relevant predictions not flagged insufficient")
	}
}

func TestRecompute_SampleFetchErrorPropagates(t *testing.T) {
	a := newTestAggregator(&fakeSamples{err: errors.New("scan failed")}, &fakeSlices{}, newMemStore(), &fakeProfiles{})
	if _, err := a.Recompute(context.Background(), "1.000:1.000", nil); err == nil {
		t.Fatalf("sample fetch failure did not propagate")
	}
}

func TestRecompute_SliceLookupFailureYieldsNoPredictions(t *testing.T) {
	var batch []model.CatchSample
	for i := 0; i < 6; i++ {
		batch = append(batch, dawnFullMidSample("plain", &model.Coordinate{Lat: 1, Lon: 1}))
	}
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{err: errors.New("upstream down")}, newMemStore(), &fakeProfiles{})

	sig, err := a.Recompute(context.Background(), "1.000:1.000", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if len(sig.Predictions) != 0 {
		t.Fatalf("predictions = %d, want 0 when slice lookup fails", len(sig.Predictions))
	}
	if !sig.Insufficient {
		t.Fatalf("signal with no predictions not flagged insufficient")
	}
}

func TestRecompute_PersistFailureStillReturnsSignal(t *testing.T) {
	batch := []model.CatchSample{dawnFullMidSample("plain", &model.Coordinate{Lat: 1, Lon: 1})}
	store := newMemStore()
	store.putErr = errors.New("redis down")
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{}, store, &fakeProfiles{})

	sig, err := a.Recompute(context.Background(), "1.000:1.000", nil)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if sig == nil || sig.SampleSize != 1 {
		t.Fatalf("persist failure swallowed the computed signal: %+v", sig)
	}
}

func TestGetOrRefresh_ServesFreshWithoutRecompute(t *testing.T) {
	store := newMemStore()
	store.signals["1.000:1.000"] = &model.BiteSignal{
		LocationKey: "1.000:1.000",
		SampleSize:  9,
		ExpiresAt:   aggNow.Add(30 * time.Minute),
	}
	samples := &fakeSamples{err: errors.New("must not be called")}
	a := newTestAggregator(samples, &fakeSlices{}, store, &fakeProfiles{})

	sig, err := a.GetOrRefresh(context.Background(), "1.000:1.000", &model.Coordinate{Lat: 1, Lon: 1})
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if sig.SampleSize != 9 {
		t.Fatalf("fresh signal not served as-is: %+v", sig)
	}
}

func TestGetOrRefresh_RecomputesWhenExpired(t *testing.T) {
	store := newMemStore()
	store.signals["1.000:1.000"] = &model.BiteSignal{
		LocationKey: "1.000:1.000",
		SampleSize:  9,
		ExpiresAt:   aggNow.Add(-time.Minute),
	}
	batch := []model.CatchSample{dawnFullMidSample("plain", nil)}
	a := newTestAggregator(&fakeSamples{batch: batch}, &fakeSlices{}, store, &fakeProfiles{})

	sig, err := a.GetOrRefresh(context.Background(), "1.000:1.000", &model.Coordinate{Lat: 1, Lon: 1})
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if sig.SampleSize != 1 || !sig.ExpiresAt.After(aggNow) {
		t.Fatalf("expired signal not recomputed: %+v", sig)
	}
}

func TestGetOrRefresh_StaleServedWithoutCoordinate(t *testing.T) {
	store := newMemStore()
	stale := &model.BiteSignal{
		LocationKey: "1.000:1.000",
		SampleSize:  9,
		ExpiresAt:   aggNow.Add(-time.Minute),
	}
	store.signals["1.000:1.000"] = stale
	samples := &fakeSamples{err: errors.New("must not be called")}
	a := newTestAggregator(samples, &fakeSlices{}, store, &fakeProfiles{})

	sig, err := a.GetOrRefresh(context.Background(), "1.000:1.000", nil)
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if sig != stale {
		t.Fatalf("stale signal not served when no coordinate is available")
	}
}

func TestGetOrRefresh_StaleServedWhenRecomputeFails(t *testing.T) {
	store := newMemStore()
	stale := &model.BiteSignal{
		LocationKey: "1.000:1.000",
		SampleSize:  9,
		ExpiresAt:   aggNow.Add(-time.Minute),
	}
	store.signals["1.000:1.000"] = stale
	a := newTestAggregator(&fakeSamples{err: errors.New("scan failed")}, &fakeSlices{}, store, &fakeProfiles{})

	sig, err := a.GetOrRefresh(context.Background(), "1.000:1.000", &model.Coordinate{Lat: 1, Lon: 1})
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if sig != stale {
		t.Fatalf("recompute failure did not fall back to stale signal")
	}
}

func TestGetOrRefresh_MissWithoutCoordinate(t *testing.T) {
	a := newTestAggregator(&fakeSamples{}, &fakeSlices{}, newMemStore(), &fakeProfiles{})
	sig, err := a.GetOrRefresh(context.Background(), "1.000:1.000", nil)
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if sig != nil {
		t.Fatalf("miss without coordinate returned %+v, want nil", sig)
	}
}
