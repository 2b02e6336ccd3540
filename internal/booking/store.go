package booking

import (
	"context"
	"time"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Active reports whether the status takes part in conflict checks.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Reservation struct {
	ID        int64             `json:"id"`
	FieldID   int64             `json:"field_id"`
	UserID    int64             `json:"user_id"`
	TeamID    *int64            `json:"team_id,omitempty"`
	SeriesID  string            `json:"series_id,omitempty"`
	Slot      TimeSlot          `json:"slot"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type WaitlistStatus string

const (
	WaitlistPending   WaitlistStatus = "pending"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistFulfilled WaitlistStatus = "fulfilled"
)

type WaitlistEntry struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"user_id"`
	FieldID    int64          `json:"field_id"`
	Slot       TimeSlot       `json:"desired_slot"`
	Priority   int            `json:"priority"`
	Status     WaitlistStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	NotifiedAt *time.Time     `json:"notified_at,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// Waiting reports whether the entry is still queued for an offer.
func (e WaitlistEntry) Waiting() bool {
	return e.Status == WaitlistPending
}

// OfferLive reports whether the entry holds an unexpired offer at now.
func (e WaitlistEntry) OfferLive(now time.Time) bool {
	return e.Status == WaitlistNotified && e.ExpiresAt != nil && e.ExpiresAt.After(now)
}

// Active reports whether the entry blocks a duplicate join at now.
func (e WaitlistEntry) Active(now time.Time) bool {
	return e.Waiting() || e.OfferLive(now)
}

// SlotKey identifies one waitlist queue.
type SlotKey struct {
	FieldID int64
	Slot    TimeSlot
}

// Repository is the persistence boundary of the engine. Lookups that find
// nothing return ErrNotFound. CreateWaitlistEntry returns ErrDuplicateEntry
// when the store's own uniqueness guard trips.
type Repository interface {
	ListActiveReservations(ctx context.Context, fieldID int64, date Date) ([]Reservation, error)
	ListReservations(ctx context.Context, fieldID int64, date Date) ([]Reservation, error)
	ListSeries(ctx context.Context, seriesID string) ([]Reservation, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	CreateReservation(ctx context.Context, r Reservation) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status ReservationStatus, at time.Time) (Reservation, error)

	CreateWaitlistEntry(ctx context.Context, e WaitlistEntry) (WaitlistEntry, error)
	GetWaitlistEntry(ctx context.Context, id int64) (WaitlistEntry, error)
	ListWaitlistForSlot(ctx context.Context, key SlotKey) ([]WaitlistEntry, error)
	MarkWaitlistNotified(ctx context.Context, id int64, notifiedAt, expiresAt time.Time) error
	UpdateWaitlistStatus(ctx context.Context, id int64, status WaitlistStatus) error
	DeleteWaitlistEntry(ctx context.Context, id int64) error
	ListExpiredOffers(ctx context.Context, now time.Time) ([]WaitlistEntry, error)
	ListWaitingSlots(ctx context.Context, from Date) ([]SlotKey, error)
	DeleteWaitlistEntriesBefore(ctx context.Context, date Date) (int64, error)
}

// Store is a Repository that can run a function in one write transaction.
// Implementations must serialize writers so a read inside the transaction
// still holds when the transaction commits.
type Store interface {
	Repository
	RunInTx(ctx context.Context, fn func(Repository) error) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
