package reputation

import (
	"context"

	"github.com/Strob0t/athena/internal/domain/review"
	"github.com/Strob0t/athena/internal/port/reputation"
)

// SimulatedReview is served when no aggregator URL is configured.
var SimulatedReview = review.Snapshot{
	Source:    "Booking.com",
	Rating:    4,
	GuestName: "John D.",
	Text:      "Great pool bar service and friendly staff, but the ice machine was noisy all afternoon.",
}

// Simulated returns a fixed review.
type Simulated struct {
	Review review.Snapshot
}

var _ reputation.Fetcher = Simulated{}

// NewSimulated returns a fetcher serving SimulatedReview.
func NewSimulated() Simulated {
	return Simulated{Review: SimulatedReview}
}

// Fetch returns the fixed review unless ctx is done.
func (s Simulated) Fetch(ctx context.Context) (review.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return review.Snapshot{}, err
	}
	return s.Review, nil
}
