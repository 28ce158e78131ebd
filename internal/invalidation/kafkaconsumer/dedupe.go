package kafkaconsumer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// eventDedupe remembers recently applied event IDs so redelivered
// messages (rebalances, retries after a partial failure) do not delete
// the same signal twice.
type eventDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, struct{}]
}

func newEventDedupe(size int) *eventDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, struct{}](size)
	return &eventDedupe{lru: c}
}

// firstSeen records the ID and reports whether it was new.
func (d *eventDedupe) firstSeen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.lru.Get(id); ok {
		return false
	}
	d.lru.Add(id, struct{}{})
	return true
}

// forget re-arms an ID whose apply failed, so the redelivery is not
// treated as a duplicate.
func (d *eventDedupe) forget(id string) {
	d.mu.Lock()
	d.lru.Remove(id)
	d.mu.Unlock()
}
