// Package invalidation defines the catch-report event that retires a
// persisted bite signal, forcing the next read to recompute it.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hooksense/bitecast/internal/core/model"
)

type Event struct {
	Version     int               `json:"version"`
	Op          string            `json:"op"`
	EventID     string            `json:"event_id"`
	UserID      string            `json:"user_id,omitempty"`
	TS          time.Time         `json:"ts"`
	LocationKey string            `json:"location_key,omitempty"`
	Coord       *model.Coordinate `json:"coord,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "report", "retract":
	default:
		return fmt.Errorf("op must be report|retract")
	}
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	hasKey := strings.TrimSpace(e.LocationKey) != ""
	hasCoord := e.Coord != nil
	if hasKey == hasCoord {
		return fmt.Errorf("exactly one of location_key or coord is required")
	}
	if hasCoord && !e.Coord.Valid() {
		return fmt.Errorf("coord out of range")
	}
	return nil
}
