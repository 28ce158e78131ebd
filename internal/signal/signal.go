// Package signal aggregates historical catch samples into per-location
// bite signals with near-term directional predictions.
package signal

import (
	"context"

	"github.com/hooksense/bitecast/internal/core/model"
)

// SampleSource queries historical catch samples by exact location key.
type SampleSource interface {
	Samples(ctx context.Context, locationKey string, limit int) ([]model.CatchSample, error)
}

// TrustSource resolves the profile fields behind a user's trust weight.
type TrustSource interface {
	Profile(ctx context.Context, userID string) (model.AnglerProfile, error)
}

// SliceSource returns forward-looking environment slices for a
// coordinate. Implementations degrade to (nil, nil) when the lookup is
// unavailable.
type SliceSource interface {
	Slices(ctx context.Context, coord model.Coordinate, hours int) ([]model.EnvironmentSlice, error)
}

// Store persists bite signals by location key. Get returns (nil, nil)
// when no signal exists; Put replaces the document wholesale.
type Store interface {
	Get(ctx context.Context, locationKey string) (*model.BiteSignal, error)
	Put(ctx context.Context, locationKey string, sig *model.BiteSignal) error
	Delete(ctx context.Context, locationKey string) error
}
