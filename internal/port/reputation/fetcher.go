// Package reputation defines the port for pulling guest reviews from an
// external reputation source.
package reputation

import (
	"context"

	"github.com/Strob0t/athena/internal/domain/review"
)

// Fetcher returns the most recent review published for the property.
type Fetcher interface {
	Fetch(ctx context.Context) (review.Snapshot, error)
}

// Func adapts an ordinary function to Fetcher.
type Func func(ctx context.Context) (review.Snapshot, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context) (review.Snapshot, error) {
	return f(ctx)
}
