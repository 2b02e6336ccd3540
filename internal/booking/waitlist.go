package booking

import (
	"context"
	"fmt"
	"slices"
	"time"
)

type WaitlistRequest struct {
	UserID   int64
	FieldID  int64
	Slot     TimeSlot
	Priority int
}

// Queue is the per-(field, slot) waitlist. Entries rank by priority
// descending, then creation time ascending, then id.
type Queue struct {
	store   Store
	clock   Clock
	locks   *fieldLocks
	maxSize int
}

// compareEntries orders entries by rank.
func compareEntries(a, b WaitlistEntry) int {
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func rankEntries(entries []WaitlistEntry) []WaitlistEntry {
	slices.SortStableFunc(entries, compareEntries)
	return entries
}

func waitingEntries(entries []WaitlistEntry) []WaitlistEntry {
	waiting := make([]WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Waiting() {
			waiting = append(waiting, e)
		}
	}
	return rankEntries(waiting)
}

// Enqueue adds a user to the waitlist for a slot. It fails with
// ErrDuplicateEntry when the user already holds an active entry for the same
// field and slot, and with ErrWaitlistFull when the slot's queue is at its
// configured size.
func (q *Queue) Enqueue(ctx context.Context, req WaitlistRequest) (WaitlistEntry, error) {
	if req.UserID <= 0 {
		return WaitlistEntry{}, fmt.Errorf("%w: user_id must be a positive integer", ErrInvalidRequest)
	}
	if req.FieldID <= 0 {
		return WaitlistEntry{}, fmt.Errorf("%w: field_id must be a positive integer", ErrInvalidRequest)
	}
	if err := req.Slot.Validate(); err != nil {
		return WaitlistEntry{}, err
	}

	unlock := q.locks.lock(req.FieldID)
	defer unlock()

	now := q.clock.Now()
	key := SlotKey{FieldID: req.FieldID, Slot: req.Slot}

	var created WaitlistEntry
	err := q.store.RunInTx(ctx, func(repo Repository) error {
		existing, err := repo.ListWaitlistForSlot(ctx, key)
		if err != nil {
			return fmt.Errorf("list waitlist: %w", err)
		}

		active := 0
		for _, e := range existing {
			if e.UserID == req.UserID && e.Status == WaitlistNotified && !e.OfferLive(now) {
				// The user's own lapsed offer that the expiry sweep has not reached yet.
				if err := repo.UpdateWaitlistStatus(ctx, e.ID, WaitlistExpired); err != nil {
					return fmt.Errorf("expire lapsed offer: %w", err)
				}
				continue
			}
			if !e.Active(now) {
				continue
			}
			if e.UserID == req.UserID {
				return ErrDuplicateEntry
			}
			active++
		}
		if q.maxSize > 0 && active >= q.maxSize {
			return ErrWaitlistFull
		}

		created, err = repo.CreateWaitlistEntry(ctx, WaitlistEntry{
			UserID:    req.UserID,
			FieldID:   req.FieldID,
			Slot:      req.Slot,
			Priority:  req.Priority,
			Status:    WaitlistPending,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return WaitlistEntry{}, err
	}
	return created, nil
}

// Position returns 1 plus the number of waiting entries ranked ahead of
// entryID on the same key. Entries that are no longer waiting report
// ErrNotWaiting.
func (q *Queue) Position(ctx context.Context, entryID int64) (int, error) {
	entry, err := q.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if !entry.Waiting() {
		return 0, ErrNotWaiting
	}

	entries, err := q.store.ListWaitlistForSlot(ctx, SlotKey{FieldID: entry.FieldID, Slot: entry.Slot})
	if err != nil {
		return 0, fmt.Errorf("list waitlist: %w", err)
	}
	ahead := 0
	for _, e := range waitingEntries(entries) {
		if e.ID == entry.ID {
			break
		}
		ahead++
	}
	return ahead + 1, nil
}

// PeekTop returns the highest ranked waiting entry for a key, or nil.
// Notified and expired entries are never returned.
func (q *Queue) PeekTop(ctx context.Context, fieldID int64, slot TimeSlot) (*WaitlistEntry, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	return peekTop(ctx, q.store, SlotKey{FieldID: fieldID, Slot: slot})
}

func peekTop(ctx context.Context, repo Repository, key SlotKey) (*WaitlistEntry, error) {
	entries, err := repo.ListWaitlistForSlot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	waiting := waitingEntries(entries)
	if len(waiting) == 0 {
		return nil, nil
	}
	top := waiting[0]
	return &top, nil
}

// List returns every entry for a key in rank order.
func (q *Queue) List(ctx context.Context, fieldID int64, slot TimeSlot) ([]WaitlistEntry, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	entries, err := q.store.ListWaitlistForSlot(ctx, SlotKey{FieldID: fieldID, Slot: slot})
	if err != nil {
		return nil, err
	}
	return rankEntries(entries), nil
}

// Get returns one entry.
func (q *Queue) Get(ctx context.Context, entryID int64) (WaitlistEntry, error) {
	return q.store.GetWaitlistEntry(ctx, entryID)
}

// Leave removes an entry from its queue.
func (q *Queue) Leave(ctx context.Context, entryID int64) error {
	entry, err := q.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return err
	}
	unlock := q.locks.lock(entry.FieldID)
	defer unlock()
	return q.store.DeleteWaitlistEntry(ctx, entryID)
}

// CleanupPast deletes entries whose desired slot date is before today and
// returns how many were removed.
func (q *Queue) CleanupPast(ctx context.Context, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := DateOf(q.clock.Now().In(loc))
	return q.store.DeleteWaitlistEntriesBefore(ctx, today)
}
