package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Promotion is an offer of a freed slot to one waitlisted user. Callers use
// it to drive notification.
type Promotion struct {
	EntryID   int64     `json:"entry_id"`
	UserID    int64     `json:"user_id"`
	FieldID   int64     `json:"field_id"`
	Slot      TimeSlot  `json:"slot"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Promoter offers freed slots to the waitlist.
type Promoter struct {
	store     Store
	clock     Clock
	locks     *fieldLocks
	window    time.Duration
	scheduler *Scheduler
}

// Promote offers (fieldID, slot) to its highest ranked waiting entry and
// returns the offer, or nil when the slot is still taken, an offer for the
// key is already live, or nobody is waiting. The availability check and the
// notified mark commit together, so one freed slot is offered once.
func (p *Promoter) Promote(ctx context.Context, fieldID int64, slot TimeSlot) (*Promotion, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	unlock := p.locks.lock(fieldID)
	defer unlock()

	now := p.clock.Now()
	var promotion *Promotion
	err := p.store.RunInTx(ctx, func(repo Repository) error {
		var err error
		promotion, err = p.promote(ctx, repo, SlotKey{FieldID: fieldID, Slot: slot}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if promotion != nil {
		log.Ctx(ctx).Info().
			Int64("field_id", fieldID).
			Int64("waitlist_id", promotion.EntryID).
			Int64("user_id", promotion.UserID).
			Str("slot", slot.String()).
			Time("expires_at", promotion.ExpiresAt).
			Msg("Promoted waitlist entry")
	}
	return promotion, nil
}

// promote must run inside a transaction holding the field's lock.
func (p *Promoter) promote(ctx context.Context, repo Repository, key SlotKey, now time.Time) (*Promotion, error) {
	conflict, err := hasConflict(ctx, repo, key.FieldID, key.Slot, 0)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, nil
	}

	entries, err := repo.ListWaitlistForSlot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	for _, e := range entries {
		if e.OfferLive(now) {
			return nil, nil
		}
	}
	waiting := waitingEntries(entries)
	if len(waiting) == 0 {
		return nil, nil
	}

	winner := waiting[0]
	expiresAt := now.Add(p.window)
	if err := repo.MarkWaitlistNotified(ctx, winner.ID, now, expiresAt); err != nil {
		return nil, fmt.Errorf("mark waitlist notified: %w", err)
	}
	return &Promotion{
		EntryID:   winner.ID,
		UserID:    winner.UserID,
		FieldID:   key.FieldID,
		Slot:      key.Slot,
		ExpiresAt: expiresAt,
	}, nil
}

// ExpireOffers marks every lapsed offer expired and re-offers each freed
// slot to the next waiting entry. Expired entries are not re-queued.
func (p *Promoter) ExpireOffers(ctx context.Context) ([]Promotion, error) {
	now := p.clock.Now()
	lapsed, err := p.store.ListExpiredOffers(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired offers: %w", err)
	}

	logger := log.Ctx(ctx)
	var promotions []Promotion
	for _, entry := range lapsed {
		var next *Promotion
		err := func() error {
			unlock := p.locks.lock(entry.FieldID)
			defer unlock()
			return p.store.RunInTx(ctx, func(repo Repository) error {
				current, err := repo.GetWaitlistEntry(ctx, entry.ID)
				if err != nil {
					return err
				}
				if current.Status != WaitlistNotified || current.OfferLive(now) {
					return nil
				}
				if err := repo.UpdateWaitlistStatus(ctx, entry.ID, WaitlistExpired); err != nil {
					return fmt.Errorf("expire offer: %w", err)
				}
				next, err = p.promote(ctx, repo, SlotKey{FieldID: entry.FieldID, Slot: entry.Slot}, now)
				return err
			})
		}()
		if err != nil {
			logger.Error().Err(err).
				Int64("waitlist_id", entry.ID).
				Int64("field_id", entry.FieldID).
				Msg("Failed to expire waitlist offer")
			continue
		}

		event := logger.Info().Int64("waitlist_id", entry.ID)
		if next != nil {
			event.Int64("next_waitlist_id", next.EntryID)
			promotions = append(promotions, *next)
		}
		event.Msg("Expired waitlist offer")
	}
	return promotions, nil
}

// Sweep calls Promote for every slot from today in loc onward that still has
// waiting entries. It covers slots freed without an explicit trigger.
func (p *Promoter) Sweep(ctx context.Context, loc *time.Location) ([]Promotion, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := DateOf(p.clock.Now().In(loc))
	keys, err := p.store.ListWaitingSlots(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list waiting slots: %w", err)
	}

	var promotions []Promotion
	for _, key := range keys {
		promotion, err := p.Promote(ctx, key.FieldID, key.Slot)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).
				Int64("field_id", key.FieldID).
				Str("slot", key.Slot.String()).
				Msg("Failed to promote waitlist")
			continue
		}
		if promotion != nil {
			promotions = append(promotions, *promotion)
		}
	}
	return promotions, nil
}

// Accept books the offered slot for the entry's user while the offer is
// live and marks the entry fulfilled. A lapsed or missing offer returns
// ErrOfferExpired; a slot taken in the meantime returns ErrSlotConflict.
func (p *Promoter) Accept(ctx context.Context, entryID int64) (Reservation, error) {
	entry, err := p.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return Reservation{}, err
	}

	unlock := p.locks.lock(entry.FieldID)
	defer unlock()

	now := p.clock.Now()
	var created Reservation
	err = p.store.RunInTx(ctx, func(repo Repository) error {
		current, err := repo.GetWaitlistEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if !current.OfferLive(now) {
			return ErrOfferExpired
		}
		created, err = p.scheduler.insert(ctx, repo, BookingRequest{
			FieldID: current.FieldID,
			UserID:  current.UserID,
			Slot:    current.Slot,
		}, "")
		if err != nil {
			return err
		}
		return repo.UpdateWaitlistStatus(ctx, entryID, WaitlistFulfilled)
	})
	if err != nil {
		return Reservation{}, err
	}
	return created, nil
}
