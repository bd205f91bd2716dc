// Package revenue defines the running upsell revenue ledger.
package revenue

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/domain"
)

// DefaultAnnualMultiplier annualizes a single day's sample.
const DefaultAnnualMultiplier = 180

// ErrNonPositiveAmount is returned for zero or negative amounts.
var ErrNonPositiveAmount = fmt.Errorf("%w: amount must be positive", domain.ErrValidation)

// Totals is the aggregate returned after a successful Record.
type Totals struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	EventCount   int             `json:"event_count"`
}

// Snapshot is a consistent read of the ledger.
type Snapshot struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	EventCount   int             `json:"event_count"`
	LastLabel    string          `json:"last_label,omitempty"`
}

// Ledger accumulates confirmed revenue. Only the aggregate and the label of
// the most recent transaction are retained.
type Ledger struct {
	mu        sync.RWMutex
	total     decimal.Decimal
	count     int
	lastLabel string
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{total: decimal.Zero}
}

// Record adds amount to the total and bumps the event count in one step.
// label overwrites the previous last-transaction descriptor.
func (l *Ledger) Record(amount decimal.Decimal, label string) (Totals, error) {
	if !amount.IsPositive() {
		return Totals{}, fmt.Errorf("%w: got %s", ErrNonPositiveAmount, amount.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total = l.total.Add(amount)
	l.count++
	l.lastLabel = label
	return Totals{TotalRevenue: l.total, EventCount: l.count}, nil
}

// Snapshot returns the current aggregate.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		TotalRevenue: l.total,
		EventCount:   l.count,
		LastLabel:    l.lastLabel,
	}
}

// AnnualProjection extrapolates the snapshot total by multiplier.
func AnnualProjection(s Snapshot, multiplier int64) decimal.Decimal {
	return s.TotalRevenue.Mul(decimal.NewFromInt(multiplier))
}
