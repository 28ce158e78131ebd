package signal

import (
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

// Matrix is the in-memory result of one reduce pass over a sample
// batch. It is rebuilt from scratch on every recompute, never mutated
// incrementally across passes.
type Matrix struct {
	Slices      map[string]model.BiteSliceStats
	TotalWeight float64
	SampleSize  int

	// Centroid is the first usable sample coordinate seen during the
	// scan, as a fallback when the caller supplies none.
	Centroid *model.Coordinate
}

// Reduce folds a fetched sample batch into a fresh slice matrix. Pure:
// all I/O (fetching the batch, resolving weights) happens before this
// runs. Samples older than maxAge, without a capture time, or without a
// complete band triple are dropped.
func Reduce(samples []model.CatchSample, weightFor func(userID string) float64, now time.Time, maxAge time.Duration) Matrix {
	m := Matrix{Slices: make(map[string]model.BiteSliceStats)}
	cutoff := now.Add(-maxAge)

	for _, s := range samples {
		if s.CaughtAt == nil || s.CaughtAt.Before(cutoff) {
			continue
		}
		if s.Bands == nil || !s.Bands.Complete() {
			continue
		}

		w := weightFor(s.UserID)
		key := s.Bands.Key()

		st := m.Slices[key]
		st.Weight += w
		st.Samples++
		m.Slices[key] = st

		m.TotalWeight += w
		m.SampleSize++

		if m.Centroid == nil && s.Coord != nil && s.Coord.Valid() {
			c := *s.Coord
			m.Centroid = &c
		}
	}
	return m
}
