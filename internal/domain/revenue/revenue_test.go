package revenue

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/domain"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLedger_RecordAccumulates(t *testing.T) {
	l := NewLedger()

	if _, err := l.Record(d(50), "upgrade"); err != nil {
		t.Fatal(err)
	}
	totals, err := l.Record(d(50), "upgrade")
	if err != nil {
		t.Fatal(err)
	}

	if !totals.TotalRevenue.Equal(d(100)) || totals.EventCount != 2 {
		t.Fatalf("expected 100/2, got %s/%d", totals.TotalRevenue, totals.EventCount)
	}

	s := l.Snapshot()
	if !s.TotalRevenue.Equal(d(100)) || s.EventCount != 2 || s.LastLabel != "upgrade" {
		t.Fatalf("unexpected snapshot %+v", s)
	}

	if got := AnnualProjection(s, DefaultAnnualMultiplier); !got.Equal(d(18000)) {
		t.Fatalf("expected projection 18000, got %s", got)
	}
}

func TestLedger_OrderIndependentTotal(t *testing.T) {
	a := NewLedger()
	_, _ = a.Record(d(30), "spa")
	_, _ = a.Record(d(70), "upgrade")

	b := NewLedger()
	_, _ = b.Record(d(70), "upgrade")
	_, _ = b.Record(d(30), "spa")

	if !a.Snapshot().TotalRevenue.Equal(b.Snapshot().TotalRevenue) {
		t.Fatal("totals must not depend on order")
	}
	if a.Snapshot().LastLabel != "upgrade" || b.Snapshot().LastLabel != "spa" {
		t.Fatal("last label must be the most recent record")
	}
}

func TestLedger_RejectsNonPositive(t *testing.T) {
	l := NewLedger()
	_, _ = l.Record(d(50), "upgrade")

	for _, amt := range []decimal.Decimal{d(0), d(-10), decimal.RequireFromString("-0.01")} {
		_, err := l.Record(amt, "bad")
		if !errors.Is(err, ErrNonPositiveAmount) || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Record(%s): expected ErrNonPositiveAmount, got %v", amt, err)
		}
	}

	s := l.Snapshot()
	if !s.TotalRevenue.Equal(d(50)) || s.EventCount != 1 || s.LastLabel != "upgrade" {
		t.Fatalf("rejected records must leave the ledger unchanged, got %+v", s)
	}
}

func TestLedger_FractionalAmounts(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 10; i++ {
		_, _ = l.Record(decimal.RequireFromString("0.10"), "minibar")
	}
	if got := l.Snapshot().TotalRevenue; !got.Equal(d(1)) {
		t.Fatalf("expected exact 1.00, got %s", got)
	}
}

func TestLedger_ConcurrentRecordsKeepPairConsistent(t *testing.T) {
	l := NewLedger()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = l.Record(d(5), "upgrade")
		}()
		go func() {
			defer wg.Done()
			s := l.Snapshot()
			if !s.TotalRevenue.Equal(d(int64(s.EventCount) * 5)) {
				t.Errorf("torn read: total %s with count %d", s.TotalRevenue, s.EventCount)
			}
		}()
	}
	wg.Wait()

	if s := l.Snapshot(); s.EventCount != n || !s.TotalRevenue.Equal(d(5*n)) {
		t.Fatalf("expected %d events totalling %d, got %+v", n, 5*n, s)
	}
}
