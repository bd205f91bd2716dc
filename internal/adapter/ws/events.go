package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/domain/checklist"
	"github.com/Strob0t/athena/internal/domain/revenue"
)

// Event type constants for WebSocket messages.
const (
	EventChecklistUpdated  = "checklist.updated"
	EventAlertRaised       = "alert.raised"
	EventAlertResolved     = "alert.resolved"
	EventRevenueRecorded   = "revenue.recorded"
	EventReviewSynced      = "review.synced"
	EventDashboardSnapshot = "dashboard.snapshot"
)

// ChecklistEvent is broadcast when a department's checklist item changes.
type ChecklistEvent struct {
	Department string           `json:"department"`
	Item       string           `json:"item"`
	Value      bool             `json:"value"`
	Status     checklist.Status `json:"status"`
}

// RevenueEvent is broadcast when an upsell is confirmed.
type RevenueEvent struct {
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label"`
	Totals revenue.Totals  `json:"totals"`
}

// SyncedEvent is broadcast when a new review replaces the previous one.
type SyncedEvent struct {
	Source   string    `json:"source"`
	Rating   int       `json:"rating"`
	SyncedAt time.Time `json:"synced_at"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
