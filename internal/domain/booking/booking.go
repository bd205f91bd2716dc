// Package booking defines the front desk booking lookup used for upsells.
package booking

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Strob0t/athena/internal/domain"
)

// ErrBookingNotFound is returned for unknown booking references.
var ErrBookingNotFound = fmt.Errorf("booking %w", domain.ErrNotFound)

// Booking is a guest reservation with its current and upgrade room rates.
type Booking struct {
	Ref         string          `json:"ref" yaml:"ref"`
	GuestName   string          `json:"guest_name" yaml:"guest_name"`
	CurrentRate decimal.Decimal `json:"current_rate" yaml:"current_rate"`
	UpgradeRate decimal.Decimal `json:"upgrade_rate" yaml:"upgrade_rate"`
}

// Offer is the upgrade quote shown at the desk.
type Offer struct {
	Booking
	Delta decimal.Decimal `json:"delta"`
}

// Quote returns the upgrade offer for b.
func (b Booking) Quote() Offer {
	return Offer{Booking: b, Delta: b.UpgradeRate.Sub(b.CurrentRate)}
}

// Directory is an immutable lookup of bookings by reference.
type Directory struct {
	bookings map[string]Booking
}

// NewDirectory creates a directory from a fixed list.
func NewDirectory(bookings []Booking) *Directory {
	d := &Directory{bookings: make(map[string]Booking, len(bookings))}
	for _, b := range bookings {
		d.bookings[b.Ref] = b
	}
	return d
}

// DefaultBookings is the sample reservation loaded when none are configured.
func DefaultBookings() []Booking {
	return []Booking{{
		Ref:         "4052",
		GuestName:   "John Doe",
		CurrentRate: decimal.NewFromInt(100),
		UpgradeRate: decimal.NewFromInt(150),
	}}
}

// Lookup finds a booking by reference.
func (d *Directory) Lookup(ref string) (Booking, error) {
	b, ok := d.bookings[ref]
	if !ok {
		return Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, ref)
	}
	return b, nil
}
