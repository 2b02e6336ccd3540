// Package notify delivers booking results to users and downstream systems.
// The booking engine returns results; callers pass them here.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/booking"
)

// Notifier receives booking outcomes. Implementations handle their own
// delivery failures; a failed notification never fails the booking.
type Notifier interface {
	ReservationCreated(ctx context.Context, reservations []booking.Reservation)
	WaitlistPromoted(ctx context.Context, promotion booking.Promotion)
}

// LogNotifier writes each outcome to the request logger.
type LogNotifier struct{}

func (LogNotifier) ReservationCreated(ctx context.Context, reservations []booking.Reservation) {
	if len(reservations) == 0 {
		return
	}
	first := reservations[0]
	log.Ctx(ctx).Info().
		Int64("user_id", first.UserID).
		Int64("field_id", first.FieldID).
		Str("slot", first.Slot.String()).
		Str("series_id", first.SeriesID).
		Int("count", len(reservations)).
		Msg("Reservation created")
}

func (LogNotifier) WaitlistPromoted(ctx context.Context, promotion booking.Promotion) {
	log.Ctx(ctx).Info().
		Int64("user_id", promotion.UserID).
		Int64("field_id", promotion.FieldID).
		Int64("waitlist_id", promotion.EntryID).
		Str("slot", promotion.Slot.String()).
		Time("expires_at", promotion.ExpiresAt).
		Msg("Waitlist offer sent")
}

// Multi fans every outcome out to each notifier in order.
type Multi []Notifier

func (m Multi) ReservationCreated(ctx context.Context, reservations []booking.Reservation) {
	for _, n := range m {
		n.ReservationCreated(ctx, reservations)
	}
}

func (m Multi) WaitlistPromoted(ctx context.Context, promotion booking.Promotion) {
	for _, n := range m {
		n.WaitlistPromoted(ctx, promotion)
	}
}

// Nop discards every outcome.
type Nop struct{}

func (Nop) ReservationCreated(context.Context, []booking.Reservation) {}
func (Nop) WaitlistPromoted(context.Context, booking.Promotion)       {}
