// Package service contains application services.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	cfotel "github.com/Strob0t/athena/internal/adapter/otel"
	"github.com/Strob0t/athena/internal/adapter/ws"
	"github.com/Strob0t/athena/internal/config"
	"github.com/Strob0t/athena/internal/domain"
	"github.com/Strob0t/athena/internal/domain/alert"
	"github.com/Strob0t/athena/internal/domain/checklist"
	"github.com/Strob0t/athena/internal/domain/revenue"
	"github.com/Strob0t/athena/internal/domain/review"
	"github.com/Strob0t/athena/internal/port/broadcast"
)

// ErrUnknownDepartment is returned for department IDs not in the hotel config.
var ErrUnknownDepartment = fmt.Errorf("department %w", domain.ErrNotFound)

// DepartmentState is the derived readiness of a department.
type DepartmentState string

const (
	DepartmentPending   DepartmentState = "pending"
	DepartmentSettingUp DepartmentState = "setting_up"
	DepartmentReady     DepartmentState = "ready"
)

// DepartmentStatus is derived from a department's checklist on every query.
type DepartmentStatus struct {
	Department  string          `json:"department"`
	Label       string          `json:"label"`
	State       DepartmentState `json:"state"`
	ReadyCount  int             `json:"ready_count"`
	Total       int             `json:"total"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type department struct {
	id      string
	label   string
	tracker *checklist.Tracker
}

// HubOption configures optional Hub collaborators.
type HubOption func(*Hub)

// WithBroadcaster sends every mutation to b.
func WithBroadcaster(b broadcast.Broadcaster) HubOption {
	return func(h *Hub) { h.events = b }
}

// WithMetrics records hub activity on m.
func WithMetrics(m *cfotel.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// Hub is the shared operational state of one hotel. It is created once per
// process and handed to every viewer-facing handler.
//
// Each owned component serializes its own mutations; the hub adds only the
// last-mutation timestamp and a version counter for change detection.
type Hub struct {
	hotel       string
	group       []string
	departments map[string]*department
	order       []string

	alerts  *alert.Log
	ledger  *revenue.Ledger
	reviews *review.Intake

	multiplier       int64
	responseTemplate string

	events  broadcast.Broadcaster
	metrics *cfotel.Metrics
	now     func() time.Time

	lastMutation atomic.Int64
	version      atomic.Uint64
}

// NewHub builds the hub for the given hotel configuration.
func NewHub(cfg config.Hotel, opts ...HubOption) *Hub {
	h := &Hub{
		hotel:            cfg.Name,
		group:            append([]string(nil), cfg.Group...),
		departments:      make(map[string]*department, len(cfg.Departments)),
		multiplier:       cfg.AnnualMultiplier,
		responseTemplate: cfg.ResponseTemplate,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.multiplier < 1 {
		h.multiplier = revenue.DefaultAnnualMultiplier
	}

	h.alerts = alert.NewLogWithClock(h.now)
	h.ledger = revenue.NewLedger()
	h.reviews = review.NewIntake()

	for _, d := range cfg.Departments {
		label := d.Label
		if label == "" {
			label = strings.ToUpper(strings.ReplaceAll(d.ID, "_", " "))
		}
		h.departments[d.ID] = &department{
			id:      d.ID,
			label:   label,
			tracker: checklist.NewTrackerWithClock(d.Items, h.now),
		}
		h.order = append(h.order, d.ID)
	}
	h.lastMutation.Store(h.now().UnixNano())
	return h
}

// Hotel returns the property name and its group.
func (h *Hub) Hotel() (name string, group []string) {
	return h.hotel, append([]string(nil), h.group...)
}

// Version increases by one after every successful mutation.
func (h *Hub) Version() uint64 {
	return h.version.Load()
}

// LastMutation is the time of the most recent successful mutation, or hub
// creation if none happened yet.
func (h *Hub) LastMutation() time.Time {
	return time.Unix(0, h.lastMutation.Load())
}

func (h *Hub) touch() {
	h.lastMutation.Store(h.now().UnixNano())
	h.version.Add(1)
}

func (h *Hub) broadcast(ctx context.Context, eventType string, payload any) {
	if h.events != nil {
		h.events.BroadcastEvent(ctx, eventType, payload)
	}
}

func (h *Hub) department(id string) (*department, error) {
	d, ok := h.departments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDepartment, id)
	}
	return d, nil
}

// --- Checklist ---

// SetChecklistItem toggles one readiness flag of a department.
func (h *Hub) SetChecklistItem(ctx context.Context, dept, item string, value bool) (checklist.Status, error) {
	d, err := h.department(dept)
	if err != nil {
		return checklist.Status{}, err
	}
	if err := d.tracker.Set(item, value); err != nil {
		slog.DebugContext(ctx, "checklist update rejected", "department", dept, "item", item, "error", err)
		return checklist.Status{}, err
	}
	h.touch()

	st := d.tracker.Status()
	slog.InfoContext(ctx, "checklist updated",
		"department", dept,
		"item", item,
		"value", value,
		"ready", st.ReadyCount,
		"total", st.Total,
	)
	if h.metrics != nil {
		h.metrics.ChecklistToggles.Add(ctx, 1, metric.WithAttributes(
			attribute.String("department", dept),
		))
	}
	h.broadcast(ctx, ws.EventChecklistUpdated, ws.ChecklistEvent{
		Department: dept,
		Item:       item,
		Value:      value,
		Status:     st,
	})
	return st, nil
}

// Checklist returns a department's current checklist.
func (h *Hub) Checklist(dept string) (checklist.Status, error) {
	d, err := h.department(dept)
	if err != nil {
		return checklist.Status{}, err
	}
	return d.tracker.Status(), nil
}

// DepartmentStatus derives Pending / SettingUp / Ready from the checklist.
func (h *Hub) DepartmentStatus(dept string) (DepartmentStatus, error) {
	d, err := h.department(dept)
	if err != nil {
		return DepartmentStatus{}, err
	}
	return deriveStatus(d, d.tracker.Status()), nil
}

func deriveStatus(d *department, st checklist.Status) DepartmentStatus {
	ds := DepartmentStatus{
		Department: d.id,
		Label:      d.label,
		ReadyCount: st.ReadyCount,
		Total:      st.Total,
	}
	switch {
	case st.ReadyCount == 0:
		ds.State = DepartmentPending
	case st.ReadyCount < st.Total:
		ds.State = DepartmentSettingUp
	default:
		ds.State = DepartmentReady
		ds.CompletedAt = st.CompletedAt
	}
	return ds
}

// --- Alerts ---

// RaiseAlert appends a pending alert from source.
func (h *Hub) RaiseAlert(ctx context.Context, source, message string, priority alert.Priority) (alert.Alert, error) {
	a, err := h.alerts.Add(source, message, priority)
	if err != nil {
		slog.DebugContext(ctx, "alert rejected", "source", source, "error", err)
		return alert.Alert{}, err
	}
	h.touch()

	slog.InfoContext(ctx, "alert raised",
		"alert_id", a.ID,
		"source", a.Source,
		"priority", a.Priority,
	)
	if h.metrics != nil {
		h.metrics.AlertsRaised.Add(ctx, 1, metric.WithAttributes(
			attribute.String("priority", string(a.Priority)),
		))
	}
	h.broadcast(ctx, ws.EventAlertRaised, a)
	return a, nil
}

// RaiseCritical raises the canned high-priority emergency alert.
func (h *Hub) RaiseCritical(ctx context.Context, source string) (alert.Alert, error) {
	return h.RaiseAlert(ctx, source, alert.CriticalMessage, alert.PriorityHigh)
}

// ResolveAlert acknowledges a pending alert. A second resolve of the same
// alert fails with alert.ErrAlreadyResolved.
func (h *Hub) ResolveAlert(ctx context.Context, id int64) (alert.Alert, error) {
	a, err := h.alerts.Resolve(id)
	if err != nil {
		slog.DebugContext(ctx, "alert resolve rejected", "alert_id", id, "error", err)
		return a, err
	}
	h.touch()

	slog.InfoContext(ctx, "alert resolved", "alert_id", a.ID, "source", a.Source)
	if h.metrics != nil {
		h.metrics.AlertsResolved.Add(ctx, 1)
	}
	h.broadcast(ctx, ws.EventAlertResolved, a)
	return a, nil
}

// Alert returns one alert from the log, whatever its status.
func (h *Hub) Alert(id int64) (alert.Alert, error) {
	return h.alerts.Get(id)
}

// PendingAlerts returns pending alerts in creation order, optionally for one source.
func (h *Hub) PendingAlerts(source string) []alert.Alert {
	return h.alerts.Pending(source)
}

// RecentAlerts returns the last limit alerts, oldest first.
func (h *Hub) RecentAlerts(limit int) []alert.Alert {
	return h.alerts.Recent(limit)
}

// ActiveIssueCount is the number of pending alerts.
func (h *Hub) ActiveIssueCount() int {
	return len(h.alerts.Pending(""))
}

// --- Revenue ---

// RecordRevenue books a confirmed amount.
func (h *Hub) RecordRevenue(ctx context.Context, amount decimal.Decimal, label string) (revenue.Totals, error) {
	totals, err := h.ledger.Record(amount, label)
	if err != nil {
		slog.DebugContext(ctx, "revenue rejected", "amount", amount.String(), "error", err)
		return revenue.Totals{}, err
	}
	h.touch()

	slog.InfoContext(ctx, "revenue recorded",
		"amount", amount.String(),
		"label", label,
		"total", totals.TotalRevenue.String(),
		"events", totals.EventCount,
	)
	if h.metrics != nil {
		h.metrics.RevenueEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
		h.metrics.RevenueAmount.Add(ctx, amount.InexactFloat64())
	}
	h.broadcast(ctx, ws.EventRevenueRecorded, ws.RevenueEvent{
		Amount: amount,
		Label:  label,
		Totals: totals,
	})
	return totals, nil
}

// Revenue returns the ledger aggregate.
func (h *Hub) Revenue() revenue.Snapshot {
	return h.ledger.Snapshot()
}

// AnnualProjection extrapolates today's revenue by the configured multiplier.
func (h *Hub) AnnualProjection() decimal.Decimal {
	return revenue.AnnualProjection(h.ledger.Snapshot(), h.multiplier)
}

// --- Reviews ---

// SyncReview replaces the latest review with an already-fetched snapshot.
func (h *Hub) SyncReview(ctx context.Context, s review.Snapshot) (review.Snapshot, error) {
	synced, err := h.reviews.Sync(s)
	if err != nil {
		slog.DebugContext(ctx, "review sync rejected", "source", s.Source, "error", err)
		return review.Snapshot{}, err
	}
	h.touch()

	slog.InfoContext(ctx, "review synced", "source", synced.Source, "rating", synced.Rating)
	if h.metrics != nil {
		h.metrics.ReviewSyncs.Add(ctx, 1, metric.WithAttributes(attribute.String("source", synced.Source)))
	}
	st := h.reviews.State()
	ev := ws.SyncedEvent{Source: synced.Source, Rating: synced.Rating}
	if st.SyncedAt != nil {
		ev.SyncedAt = *st.SyncedAt
	}
	h.broadcast(ctx, ws.EventReviewSynced, ev)
	return synced, nil
}

// CurrentReview returns the latest review, or false if none was synced.
func (h *Hub) CurrentReview() (review.Snapshot, bool) {
	return h.reviews.Current()
}

// ReviewState returns the intake state shown on the dashboard.
func (h *Hub) ReviewState() review.State {
	return h.reviews.State()
}

// DraftReviewResponse renders the configured reply template for the latest review.
func (h *Hub) DraftReviewResponse() (string, error) {
	return h.reviews.DraftResponse(h.responseTemplate)
}

// --- Derived ---

// HandoverSummary composes the shift handover digest. It never fails; a
// department that never completed setup is reported as such.
func (h *Hub) HandoverSummary() string {
	rev := h.ledger.Snapshot()
	pending := h.ActiveIssueCount()

	var b strings.Builder
	fmt.Fprintf(&b, "Today's ops show %d successful upsells (%s total).", rev.EventCount, rev.TotalRevenue.StringFixed(2))

	for _, id := range h.order {
		d := h.departments[id]
		st := d.tracker.Status()
		if st.CompletedAt != nil {
			fmt.Fprintf(&b, " %s setup completed at %s.", titleCase(d.label), st.CompletedAt.Format("15:04"))
		} else {
			fmt.Fprintf(&b, " %s setup not yet completed (%d/%d ready).", titleCase(d.label), st.ReadyCount, st.Total)
		}
	}

	switch pending {
	case 0:
		b.WriteString(" All issues resolved.")
	case 1:
		b.WriteString(" 1 issue still unresolved.")
	default:
		fmt.Fprintf(&b, " %d issues still unresolved.", pending)
	}
	return b.String()
}

// titleCase turns "POOL BAR" into "Pool Bar". A Caser keeps state, so each
// call gets its own.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
