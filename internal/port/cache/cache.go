// Package cache defines the port for the rendered dashboard snapshot cache.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with a TTL.
// A miss is reported as found=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
