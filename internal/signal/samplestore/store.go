// Package samplestore reads catch samples and angler profiles from
// Redis. The CRUD side of the app writes them: samples as JSON pushed
// onto a per-location list (newest first), profiles as JSON documents.
package samplestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/keys"
	"github.com/hooksense/bitecast/internal/redisstore"
	"github.com/hooksense/bitecast/internal/signal"
)

type Store struct {
	cli     *redisstore.Client
	timeout time.Duration
	logger  *zerolog.Logger
}

var (
	_ signal.SampleSource = (*Store)(nil)
	_ signal.TrustSource  = (*Store)(nil)
)

func New(cli *redisstore.Client, opTimeout time.Duration, logger *zerolog.Logger) *Store {
	return &Store{cli: cli, timeout: opTimeout, logger: logger}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Samples returns up to limit samples for a location key, newest
// first. Entries that fail to decode are skipped, not fatal: one bad
// write must not block aggregation for the whole location.
func (s *Store) Samples(ctx context.Context, locationKey string, limit int) ([]model.CatchSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raws, err := s.cli.LRange(ctx, keys.Samples(locationKey), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("samplestore scan %q: %w", locationKey, err)
	}

	out := make([]model.CatchSample, 0, len(raws))
	for _, raw := range raws {
		var smp model.CatchSample
		if err := json.Unmarshal(raw, &smp); err != nil {
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("location_key", locationKey).Msg("skipping undecodable catch sample")
			}
			continue
		}
		out = append(out, smp)
	}
	return out, nil
}

// Profile returns the angler profile for a user. An absent document is
// a zero profile, not an error.
func (s *Store) Profile(ctx context.Context, userID string) (model.AnglerProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.cli.Get(ctx, keys.Angler(userID))
	if err != nil {
		return model.AnglerProfile{}, fmt.Errorf("samplestore profile %q: %w", userID, err)
	}
	if raw == nil {
		return model.AnglerProfile{}, nil
	}

	var p model.AnglerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.AnglerProfile{}, fmt.Errorf("samplestore profile decode %q: %w", userID, err)
	}
	return p, nil
}
