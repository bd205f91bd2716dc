package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/Strob0t/athena/internal/adapter/otel"
	"github.com/Strob0t/athena/internal/adapter/ws"
	"github.com/Strob0t/athena/internal/port/broadcast"
	"github.com/Strob0t/athena/internal/port/cache"
)

// Refresher pushes the dashboard to viewers on a fixed cadence. Encoded
// snapshots are cached per hub version so idle ticks and concurrent readers
// share one encoding.
type Refresher struct {
	hub      *Hub
	events   broadcast.Broadcaster
	cache    cache.Cache
	metrics  *cfotel.Metrics
	interval time.Duration
	ttl      time.Duration

	lastPushed uint64
	pushedOnce bool
}

// NewRefresher creates a refresh loop. events, c and metrics may be nil.
func NewRefresher(hub *Hub, events broadcast.Broadcaster, c cache.Cache, metrics *cfotel.Metrics, interval, ttl time.Duration) *Refresher {
	return &Refresher{
		hub:      hub,
		events:   events,
		cache:    c,
		metrics:  metrics,
		interval: interval,
		ttl:      ttl,
	}
}

func snapshotKey(version uint64) string {
	return fmt.Sprintf("dashboard:v%d", version)
}

// SnapshotJSON returns the encoded dashboard for the hub's current version.
func (r *Refresher) SnapshotJSON(ctx context.Context) (json.RawMessage, error) {
	key := snapshotKey(r.hub.Version())
	if r.cache != nil {
		if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return data, nil
		} else if err != nil {
			slog.WarnContext(ctx, "snapshot cache get failed", "key", key, "error", err)
		}
	}

	start := time.Now()
	data, err := json.Marshal(r.hub.Dashboard())
	if err != nil {
		return nil, fmt.Errorf("encode dashboard: %w", err)
	}
	if r.metrics != nil {
		r.metrics.SnapshotBuild.Record(ctx, time.Since(start).Seconds())
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			slog.WarnContext(ctx, "snapshot cache set failed", "key", key, "error", err)
		}
	}
	return data, nil
}

// Tick pushes a snapshot if the hub changed since the last push. It reports
// whether anything was sent.
func (r *Refresher) Tick(ctx context.Context) bool {
	v := r.hub.Version()
	if r.pushedOnce && v == r.lastPushed {
		return false
	}
	data, err := r.SnapshotJSON(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "dashboard snapshot failed", "error", err)
		return false
	}
	if r.events != nil {
		r.events.BroadcastEvent(ctx, ws.EventDashboardSnapshot, data)
	}
	if r.metrics != nil {
		r.metrics.SnapshotPushes.Add(ctx, 1)
	}
	r.lastPushed = v
	r.pushedOnce = true
	return true
}

// Run ticks until ctx is done. It must be called from a single goroutine.
func (r *Refresher) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "dashboard refresher started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "dashboard refresher stopped")
			return nil
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Welcome builds the first message sent to a newly connected viewer.
func (r *Refresher) Welcome(ctx context.Context) (ws.Message, error) {
	data, err := r.SnapshotJSON(ctx)
	if err != nil {
		return ws.Message{}, err
	}
	return ws.Message{Type: ws.EventDashboardSnapshot, Payload: data}, nil
}
