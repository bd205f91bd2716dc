// Package ristretto implements the cache port with an in-process ristretto cache.
package ristretto

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// minCostBytes keeps tiny configurations usable.
const minCostBytes = 1 << 20

// Cache holds rendered snapshots keyed by string. Values are sized by length.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache bounded to maxSizeMB megabytes of values.
func New(maxSizeMB int64) (*Cache, error) {
	maxCost := maxSizeMB << 20
	if maxCost < minCostBytes {
		maxCost = minCostBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// Roughly ten counters per expected 1KiB snapshot.
		NumCounters:        maxCost / 1024 * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Cache{c: c}, nil
}

// Get returns a copy-free view of the cached bytes. Callers must not mutate it.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value and waits until it is visible to Get. A value rejected by
// the admission policy is dropped silently; the next caller rebuilds it.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.c.SetWithTTL(key, value, int64(len(value)), ttl) {
		slog.DebugContext(ctx, "cache set rejected", "key", key, "bytes", len(value))
		return nil
	}
	c.c.Wait()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// HitRatio reports the fraction of Gets served from the cache.
func (c *Cache) HitRatio() float64 {
	if c.c.Metrics == nil {
		return 0
	}
	return c.c.Metrics.Ratio()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
