// Package daylock serializes reconciliation per resource and civil day. The
// legacy flow re-read calendar state and hoped nothing changed between the
// check and the commit; the lock held across snapshot-load-through-commit is
// what actually closes that race.
package daylock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker guards a key for the duration between Acquire and the returned
// release function.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Key names the mutual-exclusion scope for one resource on one civil day.
// The day string must be rendered in the resource's timezone.
func Key(resourceID string, day time.Time) string {
	return fmt.Sprintf("daylock:%s:%s", resourceID, day.Format("2006-01-02"))
}

// Keyed is an in-process per-key mutex. Entries are created on demand and
// kept; the key space is bounded by the number of distinct booking days.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// lease, when set, extends the exclusion scope across server
	// instances sharing the same Redis.
	lease *Lease
}

// NewKeyed builds the lock. lease may be nil for single-instance setups.
func NewKeyed(lease *Lease) *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex), lease: lease}
}

// Acquire takes the process-local mutex for key, then the distributed lease
// if one is configured. The returned release undoes both in reverse order.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()

	if k.lease == nil {
		return m.Unlock, nil
	}

	releaseLease, err := k.lease.Acquire(ctx, key)
	if err != nil {
		m.Unlock()
		return nil, err
	}
	return func() {
		releaseLease()
		m.Unlock()
	}, nil
}
