// Package checklist defines the per-department readiness checklist.
package checklist

import (
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/athena/internal/domain"
)

// ErrInvalidKey is returned when an item key is not part of the checklist.
var ErrInvalidKey = fmt.Errorf("%w: unknown checklist item", domain.ErrValidation)

// DefaultItems is the pool bar opening checklist.
var DefaultItems = []string{"ice", "fridge", "music", "glass"}

// Status is a consistent read of a tracker.
type Status struct {
	Items       map[string]bool `json:"items"`
	ReadyCount  int             `json:"ready_count"`
	Total       int             `json:"total"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Complete reports whether every item was ready when the status was taken.
func (s Status) Complete() bool {
	return s.Total > 0 && s.ReadyCount == s.Total
}

// Tracker holds the readiness flags of one department.
// CompletedAt is non-nil iff every item is true.
type Tracker struct {
	mu          sync.RWMutex
	items       map[string]bool
	keys        []string
	completedAt *time.Time
	now         func() time.Time
}

// NewTracker creates a tracker with all given items unchecked.
// Duplicate keys are collapsed.
func NewTracker(keys []string) *Tracker {
	return NewTrackerWithClock(keys, time.Now)
}

// NewTrackerWithClock is NewTracker with an injectable clock.
func NewTrackerWithClock(keys []string, now func() time.Time) *Tracker {
	t := &Tracker{
		items: make(map[string]bool, len(keys)),
		now:   now,
	}
	for _, k := range keys {
		if _, dup := t.items[k]; dup {
			continue
		}
		t.items[k] = false
		t.keys = append(t.keys, k)
	}
	return t
}

// Keys returns the tracked item keys in declaration order.
func (t *Tracker) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Set updates one item. CompletedAt is stamped on the transition to all-ready
// and cleared as soon as any item is unset.
func (t *Tracker) Set(key string, value bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.items[key]; !ok {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	t.items[key] = value

	switch {
	case !t.allReadyLocked():
		t.completedAt = nil
	case t.completedAt == nil:
		ts := t.now()
		t.completedAt = &ts
	}
	return nil
}

// Status returns a copy of the current flags and derived fields.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Status{
		Items: make(map[string]bool, len(t.items)),
		Total: len(t.items),
	}
	for k, v := range t.items {
		s.Items[k] = v
		if v {
			s.ReadyCount++
		}
	}
	if t.completedAt != nil {
		ts := *t.completedAt
		s.CompletedAt = &ts
	}
	return s
}

func (t *Tracker) allReadyLocked() bool {
	for _, v := range t.items {
		if !v {
			return false
		}
	}
	return len(t.items) > 0
}
