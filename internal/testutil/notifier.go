package testutil

import (
	"context"
	"sync"

	"github.com/codr1/fieldbook/internal/booking"
)

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu         sync.Mutex
	created    [][]booking.Reservation
	promotions []booking.Promotion
}

func (n *RecordingNotifier) ReservationCreated(_ context.Context, reservations []booking.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, append([]booking.Reservation(nil), reservations...))
}

func (n *RecordingNotifier) WaitlistPromoted(_ context.Context, promotion booking.Promotion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.promotions = append(n.promotions, promotion)
}

// Created returns every ReservationCreated batch in call order.
func (n *RecordingNotifier) Created() [][]booking.Reservation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]booking.Reservation(nil), n.created...)
}

// Promotions returns every WaitlistPromoted call in order.
func (n *RecordingNotifier) Promotions() []booking.Promotion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]booking.Promotion(nil), n.promotions...)
}
