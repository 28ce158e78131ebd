package signal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/ttlcache"
)

// Trust weight composition. Elevated status and a recorded trophy catch
// both raise the weight a user's samples carry.
const (
	baseTrust   = 1.0
	proBonus    = 0.5
	trophyBonus = 0.25
)

// TrustResolver memoizes per-user trust weights so aggregation passes
// do not hammer the profile store. The memo is bounded and expiring,
// and safe for concurrent passes.
type TrustResolver struct {
	src    TrustSource
	memo   *ttlcache.Cache[string, float64]
	logger *zerolog.Logger
}

func NewTrustResolver(src TrustSource, ttl time.Duration, size int, logger *zerolog.Logger) (*TrustResolver, error) {
	memo, err := ttlcache.New[string, float64](ttl, size)
	if err != nil {
		return nil, err
	}
	return &TrustResolver{src: src, memo: memo, logger: logger}, nil
}

// Weight resolves the trust weight for a user. Lookup failures fall
// back to the base weight and are not memoized.
func (r *TrustResolver) Weight(ctx context.Context, userID string) float64 {
	if userID == "" {
		return baseTrust
	}
	w, err := r.memo.GetOrSet(userID, func() (float64, error) {
		p, err := r.src.Profile(ctx, userID)
		if err != nil {
			return 0, err
		}
		w := baseTrust
		if p.Pro {
			w += proBonus
		}
		if p.TrophyCatches > 0 {
			w += trophyBonus
		}
		return w, nil
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Debug().Err(err).Str("user_id", userID).Msg("trust lookup failed, using base weight")
		}
		return baseTrust
	}
	return w
}
