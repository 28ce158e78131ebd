// Package signalstore persists bite signals in Redis, keyed by
// sanitized location key.
package signalstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/keys"
	"github.com/hooksense/bitecast/internal/redisstore"
	"github.com/hooksense/bitecast/internal/signal"
)

type Store struct {
	cli *redisstore.Client

	// retention must exceed the signal TTL: an expired signal is still
	// served as a stale fallback when no coordinate is available to
	// recompute from.
	retention time.Duration
	timeout   time.Duration
}

var _ signal.Store = (*Store)(nil)

func New(cli *redisstore.Client, retention, opTimeout time.Duration) *Store {
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	return &Store{cli: cli, retention: retention, timeout: opTimeout}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Get(ctx context.Context, locationKey string) (*model.BiteSignal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.cli.Get(ctx, keys.Signal(locationKey))
	if err != nil {
		return nil, fmt.Errorf("signalstore get %q: %w", locationKey, err)
	}
	if raw == nil {
		return nil, nil
	}

	var sig model.BiteSignal
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, fmt.Errorf("signalstore decode %q: %w", locationKey, err)
	}
	return &sig, nil
}

func (s *Store) Put(ctx context.Context, locationKey string, sig *model.BiteSignal) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("signalstore encode %q: %w", locationKey, err)
	}
	if err := s.cli.Set(ctx, keys.Signal(locationKey), raw, s.retention); err != nil {
		return fmt.Errorf("signalstore put %q: %w", locationKey, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, locationKey string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.cli.Del(ctx, keys.Signal(locationKey)); err != nil {
		return fmt.Errorf("signalstore delete %q: %w", locationKey, err)
	}
	return nil
}
