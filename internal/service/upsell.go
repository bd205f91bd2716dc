package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/athena/internal/domain/booking"
	"github.com/Strob0t/athena/internal/domain/revenue"
)

// UpgradeLabel tags ledger entries booked from the reception upsell.
const UpgradeLabel = "upgrade"

// UpsellService quotes and confirms room upgrades at the front desk.
type UpsellService struct {
	hub       *Hub
	directory *booking.Directory
}

// NewUpsellService creates an upsell service over a fixed booking directory.
func NewUpsellService(hub *Hub, directory *booking.Directory) *UpsellService {
	return &UpsellService{hub: hub, directory: directory}
}

// QuoteUpgrade returns the upgrade offer for a booking.
func (s *UpsellService) QuoteUpgrade(ref string) (booking.Offer, error) {
	b, err := s.directory.Lookup(ref)
	if err != nil {
		return booking.Offer{}, err
	}
	return b.Quote(), nil
}

// ConfirmUpgrade books the rate difference into the revenue ledger.
func (s *UpsellService) ConfirmUpgrade(ctx context.Context, ref string) (booking.Offer, revenue.Totals, error) {
	offer, err := s.QuoteUpgrade(ref)
	if err != nil {
		return booking.Offer{}, revenue.Totals{}, err
	}
	totals, err := s.hub.RecordRevenue(ctx, offer.Delta, UpgradeLabel)
	if err != nil {
		return offer, revenue.Totals{}, fmt.Errorf("confirm upgrade %s: %w", ref, err)
	}
	slog.InfoContext(ctx, "upgrade confirmed", "booking", ref, "guest", offer.GuestName, "delta", offer.Delta.String())
	return offer, totals, nil
}
