package review

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/athena/internal/domain"
)

var bookingReview = Snapshot{
	Source:    "Booking.com",
	Rating:    4,
	GuestName: "John D.",
	Text:      "The pool bar staff was excellent but the ice machine was noisy.",
}

func TestIntake_CurrentBeforeSync(t *testing.T) {
	in := NewIntake()
	if _, ok := in.Current(); ok {
		t.Fatal("expected no review before sync")
	}
	if st := in.State(); st.Synced || st.Review != nil {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestIntake_SyncThenCurrent(t *testing.T) {
	in := NewIntake()

	got, err := in.Sync(bookingReview)
	if err != nil {
		t.Fatal(err)
	}
	if got != bookingReview {
		t.Fatalf("Sync returned %+v", got)
	}

	cur, ok := in.Current()
	if !ok || cur != bookingReview {
		t.Fatalf("expected current to equal synced review, got %+v (ok=%v)", cur, ok)
	}
	if st := in.State(); !st.Synced || st.SyncedAt == nil {
		t.Fatalf("expected synced state, got %+v", st)
	}
}

func TestIntake_SecondSyncReplacesWhole(t *testing.T) {
	in := NewIntake()
	_, _ = in.Sync(bookingReview)

	second := Snapshot{Source: "Tripadvisor", Rating: 2, GuestName: "Maria K.", Text: "Slow check-in."}
	if _, err := in.Sync(second); err != nil {
		t.Fatal(err)
	}

	cur, _ := in.Current()
	if cur != second {
		t.Fatalf("expected full replacement, got %+v", cur)
	}
}

func TestIntake_SyncRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"rating zero", Snapshot{Source: "x", Rating: 0, GuestName: "g", Text: "t"}},
		{"rating six", Snapshot{Source: "x", Rating: 6, GuestName: "g", Text: "t"}},
		{"missing source", Snapshot{Rating: 3, GuestName: "g", Text: "t"}},
		{"missing guest", Snapshot{Source: "x", Rating: 3, Text: "t"}},
		{"missing text", Snapshot{Source: "x", Rating: 3, GuestName: "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewIntake()
			_, _ = in.Sync(bookingReview)

			_, err := in.Sync(tt.snap)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if cur, _ := in.Current(); cur != bookingReview {
				t.Fatal("rejected sync must keep the previous review")
			}
		})
	}
}

func TestIntake_DraftResponse(t *testing.T) {
	in := NewIntake()

	_, err := in.DraftResponse("")
	if !errors.Is(err, ErrNoReviewAvailable) {
		t.Fatalf("expected ErrNoReviewAvailable, got %v", err)
	}

	_, _ = in.Sync(bookingReview)

	draft, err := in.DraftResponse("")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"John D.", "4-star", "Booking.com", "ice machine was noisy"} {
		if !strings.Contains(draft, want) {
			t.Errorf("draft %q missing %q", draft, want)
		}
	}

	custom, err := in.DraftResponse("Hi {{.GuestName}}!")
	if err != nil {
		t.Fatal(err)
	}
	if custom != "Hi John D.!" {
		t.Fatalf("unexpected custom draft %q", custom)
	}
}

func TestDraft_InvalidTemplate(t *testing.T) {
	for _, tmpl := range []string{"{{.GuestName", "{{.Nickname}}"} {
		_, err := Draft(bookingReview, tmpl)
		if !errors.Is(err, ErrInvalidTemplate) || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("template %q: expected ErrInvalidTemplate, got %v", tmpl, err)
		}
	}
}
