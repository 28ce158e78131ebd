package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/core/observability"
)

type Config struct {
	ScanLimit int
	MaxAge    time.Duration
	TTL       time.Duration
}

func (c *Config) applyDefaults() {
	if c.ScanLimit <= 0 {
		c.ScanLimit = 250
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 30 * 24 * time.Hour
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
}

// Aggregator owns the bite-signal lifecycle: scan, reduce, predict,
// persist, and the stale-tolerant read path.
type Aggregator struct {
	samples SampleSource
	slices  SliceSource
	store   Store
	trust   *TrustResolver
	logger  *zerolog.Logger
	cfg     Config

	now func() time.Time
}

func NewAggregator(samples SampleSource, slices SliceSource, store Store, trust *TrustResolver, cfg Config, logger *zerolog.Logger) *Aggregator {
	cfg.applyDefaults()
	return &Aggregator{
		samples: samples,
		slices:  slices,
		store:   store,
		trust:   trust,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Recompute rebuilds the signal for a location key from scratch and
// persists it wholesale. Samples inserted while the scan is running may
// or may not be reflected; each fetched sample is counted exactly once
// within a pass. A persistence failure is logged but the computed
// signal is still returned.
func (a *Aggregator) Recompute(ctx context.Context, locationKey string, coord *model.Coordinate) (*model.BiteSignal, error) {
	start := time.Now()
	defer func() {
		observability.ObserveSignalRecompute(time.Since(start).Seconds())
	}()

	batch, err := a.samples.Samples(ctx, locationKey, a.cfg.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("signal: fetch samples for %q: %w", locationKey, err)
	}

	now := a.now().UTC()

	// Phase one: resolve trust weights (I/O, memoized). Phase two: pure
	// reduce over the batch.
	weights := make(map[string]float64)
	for _, s := range batch {
		if _, ok := weights[s.UserID]; !ok {
			weights[s.UserID] = a.trust.Weight(ctx, s.UserID)
		}
	}
	m := Reduce(batch, func(id string) float64 { return weights[id] }, now, a.cfg.MaxAge)

	centroid := coord
	if centroid == nil {
		centroid = m.Centroid
	}

	var preds []model.BitePrediction
	if centroid != nil {
		sls, err := a.slices.Slices(ctx, *centroid, forwardHours)
		if err != nil {
			// Treated as "no slices available", same as an empty answer.
			if a.logger != nil {
				a.logger.Warn().Err(err).Str("location_key", locationKey).Msg("slice lookup failed")
			}
			sls = nil
		}
		for _, sl := range sls {
			preds = append(preds, predictFor(m, sl))
		}
	}

	sig := &model.BiteSignal{
		LocationKey:  locationKey,
		SampleSize:   m.SampleSize,
		TotalWeight:  m.TotalWeight,
		Slices:       m.Slices,
		Predictions:  preds,
		Insufficient: m.SampleSize < minSamples || !anyRelevant(preds),
		Centroid:     centroid,
		ComputedAt:   now,
		ExpiresAt:    now.Add(a.cfg.TTL),
	}

	if err := a.store.Put(ctx, locationKey, sig); err != nil {
		// The in-memory result is still good; serve it and let the next
		// read retry persistence.
		if a.logger != nil {
			a.logger.Error().Err(err).Str("location_key", locationKey).Msg("signal persist failed")
		}
	}
	return sig, nil
}

// GetOrRefresh serves the persisted signal while fresh, recomputes when
// stale and a coordinate is available, and falls back to the stale
// signal otherwise.
func (a *Aggregator) GetOrRefresh(ctx context.Context, locationKey string, coord *model.Coordinate) (*model.BiteSignal, error) {
	cur, err := a.store.Get(ctx, locationKey)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn().Err(err).Str("location_key", locationKey).Msg("signal read failed")
		}
		cur = nil
	}

	if cur.Fresh(a.now()) {
		observability.IncSignalRead("fresh")
		return cur, nil
	}

	if coord == nil || !coord.Valid() {
		if cur != nil {
			observability.IncSignalRead("stale")
			return cur, nil
		}
		observability.IncSignalRead("miss")
		return nil, nil
	}

	fresh, err := a.Recompute(ctx, locationKey, coord)
	if err != nil {
		if cur != nil {
			if a.logger != nil {
				a.logger.Warn().Err(err).Str("location_key", locationKey).Msg("recompute failed, serving stale signal")
			}
			observability.IncSignalRead("stale")
			return cur, nil
		}
		return nil, err
	}
	observability.IncSignalRead("recomputed")
	return fresh, nil
}

func anyRelevant(preds []model.BitePrediction) bool {
	for _, p := range preds {
		if p.Confidence >= confRelevanceFloor {
			return true
		}
	}
	return false
}
