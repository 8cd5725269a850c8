package scrape

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Throttle bounds the number of extraction operations executing at once.
// Acquire blocks until a slot frees up or ctx is done; Release must run on
// every exit path, which the orchestrator guarantees with a defer.
//
// The throttle imposes no timeout of its own. A hung strategy holds its slot
// until a caller-level deadline cancels it.
type Throttle struct {
	sem   *semaphore.Weighted
	limit int64
}

// NewThrottle creates a Throttle with the given slot count. A non-positive
// limit falls back to 1.
func NewThrottle(limit int) *Throttle {
	n := int64(limit)
	if n <= 0 {
		n = 1
	}
	return &Throttle{sem: semaphore.NewWeighted(n), limit: n}
}

// Acquire claims one slot, blocking until one is free.
func (t *Throttle) Acquire(ctx context.Context) error {
	return t.sem.Acquire(ctx, 1)
}

// Release returns one slot.
func (t *Throttle) Release() {
	t.sem.Release(1)
}

// Limit reports the configured slot count.
func (t *Throttle) Limit() int {
	return int(t.limit)
}
