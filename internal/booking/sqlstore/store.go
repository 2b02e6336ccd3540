// Package sqlstore implements booking.Store on the SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/fieldbook/internal/booking"
	appdb "github.com/codr1/fieldbook/internal/db"
	dbgen "github.com/codr1/fieldbook/internal/db/generated"
)

// Store persists reservations and waitlist entries through the generated
// queries. Transactions use BEGIN IMMEDIATE, so the conflict read and the
// write that follows it commit atomically with respect to other writers.
type Store struct {
	db *appdb.DB
}

var _ booking.Store = (*Store)(nil)

func New(database *appdb.DB) *Store {
	return &Store{db: database}
}

func (s *Store) RunInTx(ctx context.Context, fn func(booking.Repository) error) error {
	return s.db.RunInTx(ctx, func(tx *appdb.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) q() *dbgen.Queries {
	return s.db.Queries
}

func (s *Store) ListActiveReservations(ctx context.Context, fieldID int64, date booking.Date) ([]booking.Reservation, error) {
	rows, err := s.q().ListActiveReservationsForDate(ctx, dbgen.ListActiveReservationsForDateParams{
		FieldID:  fieldID,
		SlotDate: date.String(),
	})
	if err != nil {
		return nil, err
	}
	return toReservations(rows)
}

func (s *Store) ListReservations(ctx context.Context, fieldID int64, date booking.Date) ([]booking.Reservation, error) {
	rows, err := s.q().ListReservationsForDate(ctx, dbgen.ListReservationsForDateParams{
		FieldID:  fieldID,
		SlotDate: date.String(),
	})
	if err != nil {
		return nil, err
	}
	return toReservations(rows)
}

func (s *Store) ListSeries(ctx context.Context, seriesID string) ([]booking.Reservation, error) {
	rows, err := s.q().ListReservationsBySeries(ctx, sql.NullString{String: seriesID, Valid: true})
	if err != nil {
		return nil, err
	}
	return toReservations(rows)
}

func (s *Store) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	row, err := s.q().GetReservation(ctx, id)
	if err != nil {
		return booking.Reservation{}, mapError(err)
	}
	return toReservation(row)
}

func (s *Store) CreateReservation(ctx context.Context, r booking.Reservation) (booking.Reservation, error) {
	params := dbgen.CreateReservationParams{
		FieldID:     r.FieldID,
		UserID:      r.UserID,
		SlotDate:    r.Slot.Date.String(),
		StartMinute: int64(r.Slot.Start),
		EndMinute:   int64(r.Slot.End),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.TeamID != nil {
		params.TeamID = sql.NullInt64{Int64: *r.TeamID, Valid: true}
	}
	if r.SeriesID != "" {
		params.SeriesID = sql.NullString{String: r.SeriesID, Valid: true}
	}

	row, err := s.q().CreateReservation(ctx, params)
	if err != nil {
		return booking.Reservation{}, mapError(err)
	}
	return toReservation(row)
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id int64, status booking.ReservationStatus, at time.Time) (booking.Reservation, error) {
	row, err := s.q().UpdateReservationStatus(ctx, dbgen.UpdateReservationStatusParams{
		Status:    string(status),
		UpdatedAt: at.UTC(),
		ID:        id,
	})
	if err != nil {
		return booking.Reservation{}, mapError(err)
	}
	return toReservation(row)
}

func (s *Store) CreateWaitlistEntry(ctx context.Context, e booking.WaitlistEntry) (booking.WaitlistEntry, error) {
	row, err := s.q().CreateWaitlistEntry(ctx, dbgen.CreateWaitlistEntryParams{
		UserID:      e.UserID,
		FieldID:     e.FieldID,
		SlotDate:    e.Slot.Date.String(),
		StartMinute: int64(e.Slot.Start),
		EndMinute:   int64(e.Slot.End),
		Priority:    int64(e.Priority),
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt.UTC(),
	})
	if err != nil {
		return booking.WaitlistEntry{}, mapError(err)
	}
	return toWaitlistEntry(row)
}

func (s *Store) GetWaitlistEntry(ctx context.Context, id int64) (booking.WaitlistEntry, error) {
	row, err := s.q().GetWaitlistEntry(ctx, id)
	if err != nil {
		return booking.WaitlistEntry{}, mapError(err)
	}
	return toWaitlistEntry(row)
}

func (s *Store) ListWaitlistForSlot(ctx context.Context, key booking.SlotKey) ([]booking.WaitlistEntry, error) {
	rows, err := s.q().ListWaitlistForSlot(ctx, dbgen.ListWaitlistForSlotParams{
		FieldID:     key.FieldID,
		SlotDate:    key.Slot.Date.String(),
		StartMinute: int64(key.Slot.Start),
		EndMinute:   int64(key.Slot.End),
	})
	if err != nil {
		return nil, err
	}
	return toWaitlistEntries(rows)
}

func (s *Store) MarkWaitlistNotified(ctx context.Context, id int64, notifiedAt, expiresAt time.Time) error {
	n, err := s.q().MarkWaitlistNotified(ctx, dbgen.MarkWaitlistNotifiedParams{
		NotifiedAt: sql.NullTime{Time: notifiedAt.UTC(), Valid: true},
		ExpiresAt:  sql.NullTime{Time: expiresAt.UTC(), Valid: true},
		ID:         id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotWaiting
	}
	return nil
}

func (s *Store) UpdateWaitlistStatus(ctx context.Context, id int64, status booking.WaitlistStatus) error {
	n, err := s.q().UpdateWaitlistStatus(ctx, dbgen.UpdateWaitlistStatusParams{
		Status: string(status),
		ID:     id,
	})
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	n, err := s.q().DeleteWaitlistEntry(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpiredOffers(ctx context.Context, now time.Time) ([]booking.WaitlistEntry, error) {
	rows, err := s.q().ListExpiredOffers(ctx, sql.NullTime{Time: now.UTC(), Valid: true})
	if err != nil {
		return nil, err
	}
	return toWaitlistEntries(rows)
}

func (s *Store) ListWaitingSlots(ctx context.Context, from booking.Date) ([]booking.SlotKey, error) {
	rows, err := s.q().ListWaitingSlots(ctx, from.String())
	if err != nil {
		return nil, err
	}
	keys := make([]booking.SlotKey, 0, len(rows))
	for _, row := range rows {
		slot, err := toSlot(row.SlotDate, row.StartMinute, row.EndMinute)
		if err != nil {
			return nil, err
		}
		keys = append(keys, booking.SlotKey{FieldID: row.FieldID, Slot: slot})
	}
	return keys, nil
}

func (s *Store) DeleteWaitlistEntriesBefore(ctx context.Context, date booking.Date) (int64, error) {
	return s.q().DeleteWaitlistEntriesBefore(ctx, date.String())
}

func mapError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return booking.ErrNotFound
	case appdb.IsUniqueViolation(err):
		return booking.ErrDuplicateEntry
	case appdb.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced field or user does not exist", booking.ErrInvalidRequest)
	}
	return err
}

func toSlot(date string, start, end int64) (booking.TimeSlot, error) {
	d, err := booking.ParseDate(date)
	if err != nil {
		return booking.TimeSlot{}, fmt.Errorf("stored slot date %q: %w", date, err)
	}
	return booking.TimeSlot{
		Date:  d,
		Start: booking.TimeOfDay(start),
		End:   booking.TimeOfDay(end),
	}, nil
}

func toReservation(row dbgen.Reservation) (booking.Reservation, error) {
	slot, err := toSlot(row.SlotDate, row.StartMinute, row.EndMinute)
	if err != nil {
		return booking.Reservation{}, err
	}
	r := booking.Reservation{
		ID:        row.ID,
		FieldID:   row.FieldID,
		UserID:    row.UserID,
		SeriesID:  row.SeriesID.String,
		Slot:      slot,
		Status:    booking.ReservationStatus(row.Status),
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.TeamID.Valid {
		teamID := row.TeamID.Int64
		r.TeamID = &teamID
	}
	return r, nil
}

func toReservations(rows []dbgen.Reservation) ([]booking.Reservation, error) {
	out := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := toReservation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func toWaitlistEntry(row dbgen.WaitlistEntry) (booking.WaitlistEntry, error) {
	slot, err := toSlot(row.SlotDate, row.StartMinute, row.EndMinute)
	if err != nil {
		return booking.WaitlistEntry{}, err
	}
	e := booking.WaitlistEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		FieldID:   row.FieldID,
		Slot:      slot,
		Priority:  int(row.Priority),
		Status:    booking.WaitlistStatus(row.Status),
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.NotifiedAt.Valid {
		t := row.NotifiedAt.Time.UTC()
		e.NotifiedAt = &t
	}
	if row.ExpiresAt.Valid {
		t := row.ExpiresAt.Time.UTC()
		e.ExpiresAt = &t
	}
	return e, nil
}

func toWaitlistEntries(rows []dbgen.WaitlistEntry) ([]booking.WaitlistEntry, error) {
	out := make([]booking.WaitlistEntry, 0, len(rows))
	for _, row := range rows {
		e, err := toWaitlistEntry(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
