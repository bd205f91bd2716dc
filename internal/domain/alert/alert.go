// Package alert defines operational issue reports and the append-only alert log.
package alert

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/athena/internal/domain"
)

// Priority ranks an alert for display. It never reorders the log.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh
}

// Status is the lifecycle state of an alert. It only moves Pending -> Acknowledged.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
)

// CriticalMessage is the canned text raised by the emergency button.
const CriticalMessage = "EMERGENCY: WATER LEAK NEAR ELECTRICAL"

var (
	ErrEmptyMessage    = fmt.Errorf("%w: alert message is required", domain.ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: invalid alert priority", domain.ErrValidation)
	ErrNotFound        = fmt.Errorf("alert %w", domain.ErrNotFound)
	ErrAlreadyResolved = fmt.Errorf("%w: alert already acknowledged", domain.ErrConflict)
)

// Alert is an issue report. Only Status changes after creation.
type Alert struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the append-only, creation-ordered alert collection.
type Log struct {
	mu     sync.RWMutex
	alerts []Alert
	index  map[int64]int
	nextID int64
	now    func() time.Time
}

// NewLog creates an empty alert log.
func NewLog() *Log {
	return NewLogWithClock(time.Now)
}

// NewLogWithClock is NewLog with an injectable clock.
func NewLogWithClock(now func() time.Time) *Log {
	return &Log{
		index: make(map[int64]int),
		now:   now,
	}
}

// Add appends a Pending alert with the next sequential ID.
// An empty priority defaults to PriorityNormal.
func (l *Log) Add(source, message string, priority Priority) (Alert, error) {
	if strings.TrimSpace(message) == "" {
		return Alert{}, ErrEmptyMessage
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return Alert{}, fmt.Errorf("%w %q", ErrInvalidPriority, priority)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	a := Alert{
		ID:        l.nextID,
		Source:    source,
		Message:   message,
		Priority:  priority,
		Status:    StatusPending,
		CreatedAt: l.now(),
	}
	l.index[a.ID] = len(l.alerts)
	l.alerts = append(l.alerts, a)
	return a, nil
}

// Resolve acknowledges a pending alert. Resolving an alert twice returns
// ErrAlreadyResolved and leaves it untouched.
func (l *Log) Resolve(id int64) (Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		return Alert{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if l.alerts[i].Status == StatusAcknowledged {
		return l.alerts[i], fmt.Errorf("%w: id %d", ErrAlreadyResolved, id)
	}
	l.alerts[i].Status = StatusAcknowledged
	return l.alerts[i], nil
}

// Get returns a single alert by ID.
func (l *Log) Get(id int64) (Alert, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[id]
	if !ok {
		return Alert{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return l.alerts[i], nil
}

// Pending returns pending alerts in creation order. An empty source matches all.
func (l *Log) Pending(source string) []Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Alert, 0)
	for i := range l.alerts {
		a := l.alerts[i]
		if a.Status != StatusPending {
			continue
		}
		if source != "" && a.Source != source {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Recent returns the last limit alerts regardless of status, oldest first.
func (l *Log) Recent(limit int) []Alert {
	if limit <= 0 {
		return []Alert{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	start := len(l.alerts) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Alert, len(l.alerts)-start)
	copy(out, l.alerts[start:])
	return out
}

// Len returns the total number of alerts ever raised.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}

// ByPriority returns a copy of alerts with High first, keeping creation order
// within each priority.
func ByPriority(alerts []Alert) []Alert {
	out := make([]Alert, len(alerts))
	copy(out, alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority == PriorityHigh && out[j].Priority != PriorityHigh
	})
	return out
}
