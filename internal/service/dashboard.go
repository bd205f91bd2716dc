package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/domain/alert"
	"github.com/Strob0t/athena/internal/domain/revenue"
	"github.com/Strob0t/athena/internal/domain/review"
)

// ReceptionState is the front desk indicator.
type ReceptionState string

const (
	ReceptionOK   ReceptionState = "ok"
	ReceptionWarn ReceptionState = "warn"
)

// ReceptionStatus summarizes front desk upsell activity.
type ReceptionStatus struct {
	State  ReceptionState `json:"state"`
	Upsold int            `json:"upsold"`
}

// Dashboard is everything a viewer redraws on one refresh tick. It contains no
// wall-clock field of its own so it is stable for a given Version.
type Dashboard struct {
	Hotel            string             `json:"hotel"`
	Group            []string           `json:"group"`
	Version          uint64             `json:"version"`
	LastMutation     time.Time          `json:"last_mutation"`
	Departments      []DepartmentStatus `json:"departments"`
	Reception        ReceptionStatus    `json:"reception"`
	Revenue          revenue.Snapshot   `json:"revenue"`
	AnnualProjection decimal.Decimal    `json:"annual_projection"`
	ActiveIssues     []alert.Alert      `json:"active_issues"`
	ActiveIssueCount int                `json:"active_issue_count"`
	Review           review.State       `json:"review"`
}

// Dashboard assembles the current view. Components are read one after another,
// so a mutation racing with this call may or may not be reflected.
func (h *Hub) Dashboard() Dashboard {
	d := Dashboard{
		Hotel:        h.hotel,
		Group:        append([]string(nil), h.group...),
		Version:      h.Version(),
		LastMutation: h.LastMutation(),
		Departments:  make([]DepartmentStatus, 0, len(h.order)),
	}

	for _, id := range h.order {
		dep := h.departments[id]
		d.Departments = append(d.Departments, deriveStatus(dep, dep.tracker.Status()))
	}

	d.Revenue = h.ledger.Snapshot()
	d.AnnualProjection = revenue.AnnualProjection(d.Revenue, h.multiplier)
	d.Reception = ReceptionStatus{State: ReceptionWarn, Upsold: d.Revenue.EventCount}
	if d.Revenue.TotalRevenue.IsPositive() {
		d.Reception.State = ReceptionOK
	}

	pending := h.alerts.Pending("")
	d.ActiveIssues = alert.ByPriority(pending)
	d.ActiveIssueCount = len(pending)
	d.Review = h.ReviewState()
	return d
}
