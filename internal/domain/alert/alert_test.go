package alert

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/Strob0t/athena/internal/domain"
)

func TestLog_AddAssignsSequentialIDs(t *testing.T) {
	l := NewLog()

	a1, err := l.Add("POOL BAR", "ICE MACHINE BROKEN", PriorityNormal)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := l.Add("RECEPTION", "printer jam", "")
	if err != nil {
		t.Fatal(err)
	}

	if a1.ID != 1 || a2.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", a1.ID, a2.ID)
	}
	if a2.Priority != PriorityNormal {
		t.Fatalf("expected default priority normal, got %q", a2.Priority)
	}
	if a1.Status != StatusPending {
		t.Fatalf("expected pending, got %q", a1.Status)
	}
	if a1.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestLog_AddValidation(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		priority Priority
		wantErr  error
	}{
		{"empty", "", PriorityNormal, ErrEmptyMessage},
		{"blank", "   \t", PriorityHigh, ErrEmptyMessage},
		{"bad priority", "leak", Priority("urgent"), ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLog()
			_, err := l.Add("POOL BAR", tt.message, tt.priority)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation wrap, got %v", err)
			}
			if l.Len() != 0 {
				t.Fatal("rejected Add must not append")
			}
		})
	}
}

func TestLog_ResolveLifecycle(t *testing.T) {
	l := NewLog()
	a, _ := l.Add("POOL BAR", "ICE MACHINE BROKEN", PriorityNormal)

	pending := l.Pending("")
	if len(pending) != 1 || pending[0].Status != StatusPending {
		t.Fatalf("expected one pending alert, got %+v", pending)
	}

	resolved, err := l.Resolve(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != StatusAcknowledged {
		t.Fatalf("expected acknowledged, got %q", resolved.Status)
	}
	if !resolved.CreatedAt.Equal(a.CreatedAt) || resolved.Message != a.Message {
		t.Fatal("resolve must not change fields other than status")
	}

	if got := l.Pending(""); len(got) != 0 {
		t.Fatalf("expected no pending alerts, got %d", len(got))
	}
	recent := l.Recent(1)
	if len(recent) != 1 || recent[0].ID != a.ID || recent[0].Status != StatusAcknowledged {
		t.Fatalf("expected resolved alert in history, got %+v", recent)
	}
}

func TestLog_ResolveTwiceReportsAlreadyResolved(t *testing.T) {
	l := NewLog()
	a, _ := l.Add("POOL BAR", "glass shortage", PriorityNormal)

	if _, err := l.Resolve(a.ID); err != nil {
		t.Fatal(err)
	}
	got, err := l.Resolve(a.ID)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict wrap, got %v", err)
	}
	if got.Status != StatusAcknowledged {
		t.Fatalf("expected status to stay acknowledged, got %q", got.Status)
	}
}

func TestLog_ResolveUnknown(t *testing.T) {
	l := NewLog()
	_, err := l.Resolve(99)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLog_PendingFiltersBySource(t *testing.T) {
	l := NewLog()
	_, _ = l.Add("POOL BAR", "a", PriorityNormal)
	b, _ := l.Add("RECEPTION", "b", PriorityNormal)
	_, _ = l.Add("POOL BAR", "c", PriorityHigh)
	_, _ = l.Resolve(b.ID)

	pool := l.Pending("POOL BAR")
	if len(pool) != 2 || pool[0].Message != "a" || pool[1].Message != "c" {
		t.Fatalf("unexpected pool bar pending: %+v", pool)
	}
	if got := l.Pending("RECEPTION"); len(got) != 0 {
		t.Fatalf("expected resolved reception alert excluded, got %+v", got)
	}
}

func TestLog_Recent(t *testing.T) {
	l := NewLog()
	for _, m := range []string{"one", "two", "three", "four"} {
		_, _ = l.Add("POOL BAR", m, PriorityNormal)
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{0, nil},
		{-1, nil},
		{2, []string{"three", "four"}},
		{10, []string{"one", "two", "three", "four"}},
	}
	for _, tt := range tests {
		got := l.Recent(tt.limit)
		if len(got) != len(tt.want) {
			t.Fatalf("Recent(%d): expected %d alerts, got %d", tt.limit, len(tt.want), len(got))
		}
		for i := range got {
			if got[i].Message != tt.want[i] {
				t.Fatalf("Recent(%d)[%d] = %q, want %q", tt.limit, i, got[i].Message, tt.want[i])
			}
		}
	}
}

func TestByPriority_DoesNotReorderLog(t *testing.T) {
	l := NewLog()
	_, _ = l.Add("POOL BAR", "n1", PriorityNormal)
	_, _ = l.Add("POOL BAR", "h1", PriorityHigh)
	_, _ = l.Add("POOL BAR", "n2", PriorityNormal)
	_, _ = l.Add("POOL BAR", "h2", PriorityHigh)

	sorted := ByPriority(l.Pending(""))
	want := []string{"h1", "h2", "n1", "n2"}
	for i, a := range sorted {
		if a.Message != want[i] {
			t.Fatalf("sorted[%d] = %q, want %q", i, a.Message, want[i])
		}
	}

	logOrder := l.Pending("")
	if logOrder[0].Message != "n1" || logOrder[1].Message != "h1" {
		t.Fatal("ByPriority must not mutate log order")
	}
}

func TestLog_ConcurrentAddsStrictlyIncreasing(t *testing.T) {
	l := NewLog()
	const workers = 20
	const perWorker = 50

	var mu sync.Mutex
	var ids []int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				a, err := l.Add("POOL BAR", "x", PriorityNormal)
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				ids = append(ids, a.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if l.Len() != workers*perWorker {
		t.Fatalf("expected %d alerts, got %d", workers*perWorker, l.Len())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %d", ids[i])
		}
	}

	all := l.Recent(l.Len())
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Fatalf("log order broken at %d: %d after %d", i, all[i].ID, all[i-1].ID)
		}
	}
}
