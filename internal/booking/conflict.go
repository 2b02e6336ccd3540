package booking

import (
	"context"
	"fmt"
	"sync"
)

// ConflictDetector decides whether a slot on a field is bookable.
type ConflictDetector struct {
	store Store
}

func NewConflictDetector(store Store) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// HasConflict reports whether slot overlaps any pending or confirmed
// reservation on fieldID. excludeReservationID (0 for none) is ignored so a
// reservation can be re-checked while it is modified in place.
func (d *ConflictDetector) HasConflict(ctx context.Context, fieldID int64, slot TimeSlot, excludeReservationID int64) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, err
	}
	return hasConflict(ctx, d.store, fieldID, slot, excludeReservationID)
}

// hasConflict is the single overlap check shared by booking and promotion;
// callers that act on the answer pass their transaction's Repository.
func hasConflict(ctx context.Context, repo Repository, fieldID int64, slot TimeSlot, excludeReservationID int64) (bool, error) {
	existing, err := repo.ListActiveReservations(ctx, fieldID, slot.Date)
	if err != nil {
		return false, fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range existing {
		if r.ID == excludeReservationID || !r.Status.Active() {
			continue
		}
		if r.Slot.Overlaps(slot) {
			return true, nil
		}
	}
	return false, nil
}

// fieldLocks serializes writers per field within one process. Cross-process
// safety comes from the store's write transaction.
type fieldLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newFieldLocks() *fieldLocks {
	return &fieldLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *fieldLocks) lock(fieldID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[fieldID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[fieldID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
