package checklist

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/athena/internal/domain"
)

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func TestTracker_InitialStatus(t *testing.T) {
	tr := NewTracker(DefaultItems)
	s := tr.Status()

	if s.Total != 4 {
		t.Fatalf("expected 4 items, got %d", s.Total)
	}
	if s.ReadyCount != 0 {
		t.Fatalf("expected 0 ready, got %d", s.ReadyCount)
	}
	if s.CompletedAt != nil {
		t.Fatal("expected nil CompletedAt on a fresh tracker")
	}
}

func TestTracker_InvalidKey(t *testing.T) {
	tr := NewTracker(DefaultItems)
	before := tr.Status()

	err := tr.Set("jacuzzi", true)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation wrap, got %v", err)
	}

	after := tr.Status()
	if after.ReadyCount != before.ReadyCount || len(after.Items) != len(before.Items) {
		t.Fatal("rejected Set must not change the tracker")
	}
}

func TestTracker_CompletedAtIffAllReady(t *testing.T) {
	tr := NewTrackerWithClock(DefaultItems, stepClock())
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		key := DefaultItems[rng.Intn(len(DefaultItems))]
		if err := tr.Set(key, rng.Intn(3) > 0); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
		s := tr.Status()
		if s.Complete() != (s.CompletedAt != nil) {
			t.Fatalf("step %d: complete=%v but CompletedAt=%v", i, s.Complete(), s.CompletedAt)
		}
	}
}

func TestTracker_CompletionStampedOnce(t *testing.T) {
	tr := NewTrackerWithClock(DefaultItems, stepClock())
	for _, k := range DefaultItems {
		if err := tr.Set(k, true); err != nil {
			t.Fatal(err)
		}
	}
	first := tr.Status().CompletedAt
	if first == nil {
		t.Fatal("expected CompletedAt after all items set")
	}

	// Re-setting an already-true item keeps the original stamp.
	if err := tr.Set("ice", true); err != nil {
		t.Fatal(err)
	}
	if got := tr.Status().CompletedAt; !got.Equal(*first) {
		t.Fatalf("expected CompletedAt unchanged, got %v want %v", got, first)
	}
}

func TestTracker_RecompletionIsLater(t *testing.T) {
	tr := NewTrackerWithClock(DefaultItems, stepClock())
	for _, k := range DefaultItems {
		_ = tr.Set(k, true)
	}
	first := *tr.Status().CompletedAt

	if err := tr.Set("music", false); err != nil {
		t.Fatal(err)
	}
	if tr.Status().CompletedAt != nil {
		t.Fatal("expected CompletedAt cleared after unsetting an item")
	}

	if err := tr.Set("music", true); err != nil {
		t.Fatal(err)
	}
	second := tr.Status().CompletedAt
	if second == nil {
		t.Fatal("expected CompletedAt after re-completion")
	}
	if !second.After(first) {
		t.Fatalf("expected later stamp, got %v (first %v)", second, first)
	}
}

func TestTracker_StatusIsCopy(t *testing.T) {
	tr := NewTracker(DefaultItems)
	s := tr.Status()
	s.Items["ice"] = true

	if tr.Status().Items["ice"] {
		t.Fatal("mutating a Status must not leak into the tracker")
	}
}

func TestTracker_DuplicateKeys(t *testing.T) {
	tr := NewTracker([]string{"ice", "ice", "glass"})
	if got := tr.Status().Total; got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if keys := tr.Keys(); len(keys) != 2 || keys[0] != "ice" || keys[1] != "glass" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestTracker_ConcurrentToggles(t *testing.T) {
	tr := NewTracker(DefaultItems)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = tr.Set(DefaultItems[i%len(DefaultItems)], i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			s := tr.Status()
			if s.Complete() != (s.CompletedAt != nil) {
				t.Errorf("torn read: complete=%v CompletedAt=%v", s.Complete(), s.CompletedAt)
			}
		}()
	}
	wg.Wait()
}
