// file: internal/cache/reaper.go
// version: 1.0.0
// guid: d7a2c5f9-0e4b-4a8d-9c1f-6b3e8d0a2c7e

package cache

import (
	"context"
	"log"
	"time"

	"github.com/jdfalk/abs-meta/internal/database"
	"github.com/jdfalk/abs-meta/internal/metrics"
)

// Reaper periodically reclaims expired search entries. Expiry is already
// enforced logically on every read, so the reaper is purely a storage
// reclamation job; it only ever deletes rows whose TTL has elapsed and
// never touches book rows.
type Reaper struct {
	store    database.Store
	interval time.Duration
}

// NewReaper creates a reaper sweeping at the given interval.
func NewReaper(store database.Store, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reaper{store: store, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	r.sweep()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// Sweep removes expired entries once and returns the reclaimed row count.
func (r *Reaper) Sweep() (int64, error) {
	removed, err := r.store.DeleteExpired(time.Now())
	if err != nil {
		return 0, err
	}
	metrics.AddEntriesReaped(removed)
	return removed, nil
}

func (r *Reaper) sweep() {
	removed, err := r.Sweep()
	if err != nil {
		log.Printf("[ERROR] cache reaper sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[DEBUG] cache reaper removed %d expired search entries", removed)
	}
}
