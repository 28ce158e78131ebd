// Package slices fetches forward-looking environment slices for a
// coordinate. The endpoint is best-effort: every failure mode collapses
// to "no slices available" so a broken lookup never fails the signal
// read that triggered it.
package slices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooksense/bitecast/internal/core/model"
	"github.com/hooksense/bitecast/internal/core/observability"
)

type Client struct {
	base   string
	http   *http.Client
	logger *zerolog.Logger
}

func New(base string, hc *http.Client, logger *zerolog.Logger) *Client {
	return &Client{base: base, http: hc, logger: logger}
}

// Slices returns up to hours forward slices for coord, or nil when the
// endpoint cannot answer. It never returns an error.
func (c *Client) Slices(ctx context.Context, coord model.Coordinate, hours int) ([]model.EnvironmentSlice, error) {
	start := time.Now()
	out := c.fetch(ctx, coord, hours)
	observability.ObserveUpstreamLatency("slices", time.Since(start).Seconds())
	return out, nil
}

func (c *Client) fetch(ctx context.Context, coord model.Coordinate, hours int) []model.EnvironmentSlice {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", coord.Lat))
	q.Set("lon", fmt.Sprintf("%.4f", coord.Lon))
	q.Set("hours", fmt.Sprintf("%d", hours))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		c.warn(err, "build request")
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.warn(err, "fetch")
		return nil
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.warn(fmt.Errorf("status %d", resp.StatusCode), "fetch")
		return nil
	}

	var body struct {
		Slices []model.EnvironmentSlice `json:"slices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.warn(err, "decode")
		return nil
	}

	if len(body.Slices) > hours {
		body.Slices = body.Slices[:hours]
	}
	return body.Slices
}

func (c *Client) warn(err error, op string) {
	if c.logger == nil {
		return
	}
	c.logger.Warn().Err(err).Str("op", op).Msg("slice lookup degraded to empty")
}
