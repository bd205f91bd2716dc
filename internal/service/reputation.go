package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cfotel "github.com/Strob0t/athena/internal/adapter/otel"
	"github.com/Strob0t/athena/internal/domain/review"
	"github.com/Strob0t/athena/internal/port/reputation"
	"github.com/Strob0t/athena/internal/resilience"
)

// ErrMalformedReview is returned when the reputation source answers with a
// review that fails validation. It counts against the fetch breaker.
var ErrMalformedReview = errors.New("malformed upstream review")

// ReviewSyncService pulls the latest review from the reputation source and
// hands it to the hub. A failed fetch leaves the hub untouched.
type ReviewSyncService struct {
	hub     *Hub
	fetcher reputation.Fetcher
	breaker *resilience.Breaker
	metrics *cfotel.Metrics
	source  string
}

// NewReviewSyncService creates a sync service. metrics may be nil.
func NewReviewSyncService(hub *Hub, fetcher reputation.Fetcher, breaker *resilience.Breaker, metrics *cfotel.Metrics) *ReviewSyncService {
	return &ReviewSyncService{
		hub:     hub,
		fetcher: fetcher,
		breaker: breaker,
		metrics: metrics,
		source:  fmt.Sprintf("%T", fetcher),
	}
}

// Sync fetches and stores the latest review.
func (s *ReviewSyncService) Sync(ctx context.Context) (review.Snapshot, error) {
	ctx, span := cfotel.StartReviewSyncSpan(ctx, s.source)
	defer span.End()

	var snap review.Snapshot
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var ferr error
		snap, ferr = s.fetcher.Fetch(ctx)
		if ferr != nil {
			return ferr
		}
		if verr := snap.Validate(); verr != nil {
			return fmt.Errorf("%w: %v", ErrMalformedReview, verr)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.ReviewSyncErrors.Add(ctx, 1)
		}
		slog.WarnContext(ctx, "review fetch failed", "error", err)
		return review.Snapshot{}, fmt.Errorf("fetch review: %w", err)
	}

	return s.hub.SyncReview(ctx, snap)
}

// BreakerState exposes the fetch breaker position for health reporting.
func (s *ReviewSyncService) BreakerState() resilience.State {
	return s.breaker.State()
}
