package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type BookingRequest struct {
	FieldID int64
	UserID  int64
	TeamID  *int64
	Slot    TimeSlot
}

func (r BookingRequest) validate() error {
	if r.FieldID <= 0 {
		return fmt.Errorf("%w: field_id must be a positive integer", ErrInvalidRequest)
	}
	if r.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be a positive integer", ErrInvalidRequest)
	}
	if r.TeamID != nil && *r.TeamID <= 0 {
		return fmt.Errorf("%w: team_id must be a positive integer", ErrInvalidRequest)
	}
	return r.Slot.Validate()
}

type RecurringRequest struct {
	FieldID int64
	UserID  int64
	TeamID  *int64
	Pattern Pattern
}

type SkipReason string

const SkipSlotConflict SkipReason = "slot_conflict"

type Skipped struct {
	Slot   TimeSlot   `json:"slot"`
	Reason SkipReason `json:"reason"`
}

// BatchResult is the outcome of a recurring booking. Skipped occurrences are
// expected results, not errors.
type BatchResult struct {
	SeriesID string        `json:"series_id"`
	Created  []Reservation `json:"created"`
	Skipped  []Skipped     `json:"skipped"`
}

// Partial reports whether some, but not all, occurrences were booked.
func (b BatchResult) Partial() bool {
	return len(b.Created) > 0 && len(b.Skipped) > 0
}

// Scheduler creates and transitions reservations.
type Scheduler struct {
	store          Store
	clock          Clock
	locks          *fieldLocks
	maxOccurrences int
}

// BookOnce reserves a single slot. The conflict check and the insert run in
// one write unit serialized per field; a conflict returns ErrSlotConflict
// and writes nothing.
func (s *Scheduler) BookOnce(ctx context.Context, req BookingRequest) (Reservation, error) {
	if err := req.validate(); err != nil {
		return Reservation{}, err
	}
	return s.bookOnce(ctx, req, "")
}

func (s *Scheduler) bookOnce(ctx context.Context, req BookingRequest, seriesID string) (Reservation, error) {
	unlock := s.locks.lock(req.FieldID)
	defer unlock()

	var created Reservation
	err := s.store.RunInTx(ctx, func(repo Repository) error {
		var err error
		created, err = s.insert(ctx, repo, req, seriesID)
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	return created, nil
}

// insert must run inside a transaction holding the field's lock.
func (s *Scheduler) insert(ctx context.Context, repo Repository, req BookingRequest, seriesID string) (Reservation, error) {
	conflict, err := hasConflict(ctx, repo, req.FieldID, req.Slot, 0)
	if err != nil {
		return Reservation{}, err
	}
	if conflict {
		return Reservation{}, ErrSlotConflict
	}

	created, err := repo.CreateReservation(ctx, Reservation{
		FieldID:   req.FieldID,
		UserID:    req.UserID,
		TeamID:    req.TeamID,
		SeriesID:  seriesID,
		Slot:      req.Slot,
		Status:    StatusPending,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return created, nil
}

// BookRecurring expands req.Pattern and books every occurrence on its own.
// Conflicting occurrences are reported in Skipped and the batch continues.
// When nothing could be booked it returns ErrAllOccurrencesConflicted along
// with the skipped list. A store failure stops the batch; occurrences already
// committed stay booked and are returned with the error.
func (s *Scheduler) BookRecurring(ctx context.Context, req RecurringRequest) (BatchResult, error) {
	base := BookingRequest{FieldID: req.FieldID, UserID: req.UserID, TeamID: req.TeamID, Slot: req.Pattern.BaseSlot}
	if err := base.validate(); err != nil {
		return BatchResult{}, err
	}
	slots, err := ExpandWithLimit(req.Pattern, s.maxOccurrences)
	if err != nil {
		return BatchResult{}, err
	}

	logger := log.Ctx(ctx).With().
		Int64("field_id", req.FieldID).
		Int64("user_id", req.UserID).
		Logger()

	result := BatchResult{SeriesID: uuid.NewString()}
	for _, slot := range slots {
		occurrence := base
		occurrence.Slot = slot

		created, err := s.bookOnce(ctx, occurrence, result.SeriesID)
		if err != nil {
			if errors.Is(err, ErrSlotConflict) {
				logger.Debug().Str("slot", slot.String()).Msg("Skipping conflicting occurrence")
				result.Skipped = append(result.Skipped, Skipped{Slot: slot, Reason: SkipSlotConflict})
				continue
			}
			return result, fmt.Errorf("book occurrence %s: %w", slot, err)
		}
		result.Created = append(result.Created, created)
	}

	if len(result.Created) == 0 {
		return result, ErrAllOccurrencesConflicted
	}

	logger.Info().
		Str("series_id", result.SeriesID).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Recurring reservation booked")
	return result, nil
}

// Confirm moves a pending reservation to confirmed.
func (s *Scheduler) Confirm(ctx context.Context, reservationID int64) (Reservation, error) {
	return s.transition(ctx, reservationID, StatusConfirmed)
}

// Cancel marks a reservation cancelled. Cancelled rows are kept for history.
// Cancelling twice returns the cancelled reservation again. Callers forward
// the freed slot to Promoter.Promote.
func (s *Scheduler) Cancel(ctx context.Context, reservationID int64) (Reservation, error) {
	return s.transition(ctx, reservationID, StatusCancelled)
}

func (s *Scheduler) transition(ctx context.Context, reservationID int64, to ReservationStatus) (Reservation, error) {
	current, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, err
	}

	unlock := s.locks.lock(current.FieldID)
	defer unlock()

	var updated Reservation
	err = s.store.RunInTx(ctx, func(repo Repository) error {
		r, err := repo.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.Status == to {
			updated = r
			return nil
		}
		if r.Status == StatusCancelled {
			return fmt.Errorf("%w: reservation %d is cancelled", ErrInvalidTransition, reservationID)
		}
		updated, err = repo.UpdateReservationStatus(ctx, reservationID, to, s.clock.Now())
		return err
	})
	if err != nil {
		return Reservation{}, err
	}
	return updated, nil
}

// ListReservations returns every reservation on a field and date, cancelled
// ones included.
func (s *Scheduler) ListReservations(ctx context.Context, fieldID int64, date Date) ([]Reservation, error) {
	return s.store.ListReservations(ctx, fieldID, date)
}

// Series returns the reservations created by one recurring booking.
func (s *Scheduler) Series(ctx context.Context, seriesID string) ([]Reservation, error) {
	return s.store.ListSeries(ctx, seriesID)
}

// CancelSeries cancels every active reservation in a series and returns the
// cancelled ones.
func (s *Scheduler) CancelSeries(ctx context.Context, seriesID string) ([]Reservation, error) {
	series, err := s.store.ListSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrNotFound
	}

	var cancelled []Reservation
	for _, r := range series {
		if !r.Status.Active() {
			continue
		}
		updated, err := s.Cancel(ctx, r.ID)
		if err != nil {
			return cancelled, err
		}
		cancelled = append(cancelled, updated)
	}
	return cancelled, nil
}
