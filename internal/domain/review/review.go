// Package review holds the latest externally sourced guest review and drafts
// replies to it.
package review

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/Strob0t/athena/internal/domain"
)

// ErrNoReviewAvailable is returned when a draft is requested before any sync.
var ErrNoReviewAvailable = fmt.Errorf("review %w: nothing synced yet", domain.ErrNotFound)

// ErrInvalidTemplate is returned when a response template cannot be parsed or executed.
var ErrInvalidTemplate = fmt.Errorf("%w: invalid response template", domain.ErrValidation)

// DefaultResponseTemplate is used when no template is configured.
const DefaultResponseTemplate = `Dear {{.GuestName}}, thank you for your {{.Rating}}-star review on {{.Source}}. ` +
	`We are delighted you enjoyed your stay and have shared your comments ("{{.Text}}") with our team.`

// Snapshot is one guest review as supplied by the reputation fetcher.
type Snapshot struct {
	Source    string `json:"source" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	GuestName string `json:"guest_name" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// Validate checks the snapshot's fields.
func (s Snapshot) Validate() error {
	return domain.ValidateStruct(s)
}

// State is the intake as seen by readers.
type State struct {
	Synced   bool       `json:"synced"`
	Review   *Snapshot  `json:"review,omitempty"`
	SyncedAt *time.Time `json:"synced_at,omitempty"`
}

// Intake keeps at most one review. Each Sync replaces the previous one whole.
type Intake struct {
	mu       sync.RWMutex
	latest   Snapshot
	synced   bool
	syncedAt time.Time
	now      func() time.Time
}

// NewIntake creates an empty intake.
func NewIntake() *Intake {
	return &Intake{now: time.Now}
}

// Sync stores s as the latest review.
func (in *Intake) Sync(s Snapshot) (Snapshot, error) {
	if err := s.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("sync review: %w", err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	in.latest = s
	in.synced = true
	in.syncedAt = in.now()
	return s, nil
}

// Current returns the latest review, or false if none was synced.
func (in *Intake) Current() (Snapshot, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.latest, in.synced
}

// State returns the intake's visible state.
func (in *Intake) State() State {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if !in.synced {
		return State{}
	}
	s := in.latest
	at := in.syncedAt
	return State{Synced: true, Review: &s, SyncedAt: &at}
}

// DraftResponse renders tmpl against the current review. An empty tmpl uses
// DefaultResponseTemplate.
func (in *Intake) DraftResponse(tmpl string) (string, error) {
	s, ok := in.Current()
	if !ok {
		return "", ErrNoReviewAvailable
	}
	return Draft(s, tmpl)
}

// Draft renders tmpl against s.
func Draft(s Snapshot, tmpl string) (string, error) {
	if tmpl == "" {
		tmpl = DefaultResponseTemplate
	}
	t, err := template.New("response").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", errors.Join(ErrInvalidTemplate, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, s); err != nil {
		return "", errors.Join(ErrInvalidTemplate, err)
	}
	return buf.String(), nil
}
