package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/adapter/excel"
	cfotel "github.com/Strob0t/athena/internal/adapter/otel"
	"github.com/Strob0t/athena/internal/domain/alert"
	"github.com/Strob0t/athena/internal/domain/review"
	"github.com/Strob0t/athena/internal/resilience"
	"github.com/Strob0t/athena/internal/service"
)

// Handlers holds the services behind the API.
type Handlers struct {
	Hub       *service.Hub
	Upsell    *service.UpsellService
	Reviews   *service.ReviewSyncService
	Refresher *service.Refresher

	// RecentAlertsLimit is the default and maximum for /alerts/recent.
	RecentAlertsLimit int
	// Viewers reports the number of live WebSocket viewers. Optional.
	Viewers func() int
	Now     func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ---------------------------------------------------------------------------
// Request bodies
// ---------------------------------------------------------------------------

type setItemRequest struct {
	Value *bool `json:"value" validate:"required"`
}

type raiseAlertRequest struct {
	Source   string         `json:"source" validate:"required,max=64"`
	Message  string         `json:"message" validate:"required,max=500"`
	Priority alert.Priority `json:"priority" validate:"omitempty,oneof=normal high"`
}

type criticalAlertRequest struct {
	Source string `json:"source" validate:"required,max=64"`
}

type recordRevenueRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label" validate:"required,max=64"`
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// GetDashboard handles GET /api/v1/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.Refresher.SnapshotJSON(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

// GetHandover handles GET /api/v1/handover
func (h *Handlers) GetHandover(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"summary": h.Hub.HandoverSummary()})
}

// ---------------------------------------------------------------------------
// Departments
// ---------------------------------------------------------------------------

// GetChecklist handles GET /api/v1/departments/{dept}/checklist
func (h *Handlers) GetChecklist(w http.ResponseWriter, r *http.Request) {
	st, err := h.Hub.Checklist(urlParam(r, "dept"))
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetChecklistItem handles PUT /api/v1/departments/{dept}/checklist/{item}
func (h *Handlers) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[setItemRequest](w, r)
	if !ok {
		return
	}
	st, err := h.Hub.SetChecklistItem(r.Context(), urlParam(r, "dept"), urlParam(r, "item"), *req.Value)
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetDepartmentStatus handles GET /api/v1/departments/{dept}/status
func (h *Handlers) GetDepartmentStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Hub.DepartmentStatus(urlParam(r, "dept"))
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ---------------------------------------------------------------------------
// Alerts
// ---------------------------------------------------------------------------

// ListAlerts handles GET /api/v1/alerts?status=pending&source=pool_bar
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s := q.Get("status"); s != "" && s != string(alert.StatusPending) {
		writeError(w, http.StatusBadRequest, "status must be pending; use /alerts/recent for history")
		return
	}
	writeJSON(w, http.StatusOK, h.Hub.PendingAlerts(q.Get("source")))
}

// RecentAlerts handles GET /api/v1/alerts/recent?limit=20
func (h *Handlers) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", h.RecentAlertsLimit)
	if !ok {
		return
	}
	if limit > h.RecentAlertsLimit {
		limit = h.RecentAlertsLimit
	}
	writeJSON(w, http.StatusOK, h.Hub.RecentAlerts(limit))
}

// RaiseAlert handles POST /api/v1/alerts
func (h *Handlers) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[raiseAlertRequest](w, r)
	if !ok {
		return
	}
	a, err := h.Hub.RaiseAlert(r.Context(), req.Source, req.Message, req.Priority)
	if err != nil {
		writeDomainError(w, err, "alert not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// RaiseCriticalAlert handles POST /api/v1/alerts/critical
func (h *Handlers) RaiseCriticalAlert(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[criticalAlertRequest](w, r)
	if !ok {
		return
	}
	a, err := h.Hub.RaiseCritical(r.Context(), req.Source)
	if err != nil {
		writeDomainError(w, err, "alert not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAlert handles GET /api/v1/alerts/{id}
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	a, err := h.Hub.Alert(id)
	if err != nil {
		writeDomainError(w, err, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ResolveAlert handles POST /api/v1/alerts/{id}/resolve
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	a, err := h.Hub.ResolveAlert(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ---------------------------------------------------------------------------
// Revenue and upsell
// ---------------------------------------------------------------------------

type revenueResponse struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	EventCount       int             `json:"event_count"`
	LastLabel        string          `json:"last_label"`
	AnnualProjection decimal.Decimal `json:"annual_projection"`
}

// GetRevenue handles GET /api/v1/revenue
func (h *Handlers) GetRevenue(w http.ResponseWriter, _ *http.Request) {
	snap := h.Hub.Revenue()
	writeJSON(w, http.StatusOK, revenueResponse{
		TotalRevenue:     snap.TotalRevenue,
		EventCount:       snap.EventCount,
		LastLabel:        snap.LastLabel,
		AnnualProjection: h.Hub.AnnualProjection(),
	})
}

// RecordRevenue handles POST /api/v1/revenue
func (h *Handlers) RecordRevenue(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[recordRevenueRequest](w, r)
	if !ok {
		return
	}
	totals, err := h.Hub.RecordRevenue(r.Context(), req.Amount, req.Label)
	if err != nil {
		writeDomainError(w, err, "revenue not found")
		return
	}
	writeJSON(w, http.StatusCreated, totals)
}

// QuoteUpgrade handles GET /api/v1/bookings/{ref}/upgrade
func (h *Handlers) QuoteUpgrade(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Upsell.QuoteUpgrade(urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// ConfirmUpgrade handles POST /api/v1/bookings/{ref}/upgrade
func (h *Handlers) ConfirmUpgrade(w http.ResponseWriter, r *http.Request) {
	offer, totals, err := h.Upsell.ConfirmUpgrade(r.Context(), urlParam(r, "ref"))
	if err != nil {
		writeDomainError(w, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"offer": offer, "totals": totals})
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

// SyncReview handles POST /api/v1/reviews/sync. An empty body pulls from the
// configured reputation source; a JSON body is stored as-is after validation.
func (h *Handlers) SyncReview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		snap, err := h.Reviews.Sync(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, snap)
		case errors.Is(err, resilience.ErrCircuitOpen):
			writeError(w, http.StatusServiceUnavailable, "review source temporarily unavailable")
		default:
			writeError(w, http.StatusBadGateway, "review source failed")
		}
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	snap, ok := readJSON[review.Snapshot](w, r)
	if !ok {
		return
	}
	synced, err := h.Hub.SyncReview(r.Context(), snap)
	if err != nil {
		writeDomainError(w, err, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, synced)
}

// GetCurrentReview handles GET /api/v1/reviews/current
func (h *Handlers) GetCurrentReview(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.Hub.CurrentReview()
	if !ok {
		writeError(w, http.StatusNotFound, "no review synced yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetReviewDraft handles GET /api/v1/reviews/draft
func (h *Handlers) GetReviewDraft(w http.ResponseWriter, _ *http.Request) {
	draft, err := h.Hub.DraftReviewResponse()
	if err != nil {
		writeDomainError(w, err, "no review synced yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": draft})
}

// ---------------------------------------------------------------------------
// Reports and health
// ---------------------------------------------------------------------------

// ExportReport handles GET /api/v1/reports/export
func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	alerts := h.Hub.RecentAlerts(h.RecentAlertsLimit)
	_, span := cfotel.StartExportSpan(r.Context(), "xlsx", len(alerts))
	defer span.End()

	hotel, _ := h.Hub.Hotel()
	now := h.now()
	var buf bytes.Buffer
	err := excel.Write(&buf, excel.Report{
		Hotel:            hotel,
		GeneratedAt:      now,
		Alerts:           alerts,
		Revenue:          h.Hub.Revenue(),
		AnnualProjection: h.Hub.AnnualProjection(),
	})
	if err != nil {
		span.RecordError(err)
		writeInternalError(w, fmt.Errorf("export report: %w", err))
		return
	}

	w.Header().Set("Content-Type", excel.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="athena-report-%s.xlsx"`, now.Format("20060102-1504")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       uint64 `json:"version"`
	Viewers       int    `json:"viewers"`
	ReviewBreaker string `json:"review_breaker"`
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Version: h.Hub.Version()}
	if h.Viewers != nil {
		resp.Viewers = h.Viewers()
	}
	if h.Reviews != nil {
		state := h.Reviews.BreakerState()
		resp.ReviewBreaker = string(state)
		if state == resilience.StateOpen {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
