package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/booking/sqlstore"
	"github.com/codr1/fieldbook/internal/db"
	"github.com/codr1/fieldbook/internal/testutil"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engineFixture struct {
	db      *db.DB
	engine  *booking.Engine
	clock   *mockClock
	fieldID int64
}

func setupEngine(t *testing.T, mutate func(*booking.Config)) *engineFixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	clock := newMockClock()
	cfg := booking.DefaultConfig()
	cfg.AcceptanceWindow = time.Hour
	cfg.Clock = clock
	if mutate != nil {
		mutate(cfg)
	}

	return &engineFixture{
		db:      database,
		engine:  booking.New(sqlstore.New(database), cfg),
		clock:   clock,
		fieldID: testutil.CreateField(t, database),
	}
}

func slot(t *testing.T, date, start, end string) booking.TimeSlot {
	t.Helper()
	d, err := booking.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	s, err := booking.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	e, err := booking.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("parse end: %v", err)
	}
	out, err := booking.NewTimeSlot(d, s, e)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	return out
}

func (f *engineFixture) book(t *testing.T, userID int64, s booking.TimeSlot) booking.Reservation {
	t.Helper()
	r, err := f.engine.Scheduler.BookOnce(context.Background(), booking.BookingRequest{
		FieldID: f.fieldID,
		UserID:  userID,
		Slot:    s,
	})
	if err != nil {
		t.Fatalf("book %s: %v", s, err)
	}
	return r
}

func TestBookOnceAdjacentAndOverlapping(t *testing.T) {
	f := setupEngine(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db)

	first := f.book(t, user, slot(t, "2024-03-15", "10:00", "12:00"))
	if first.Status != booking.StatusPending {
		t.Fatalf("status = %s, want pending", first.Status)
	}

	_, err := f.engine.Scheduler.BookOnce(ctx, booking.BookingRequest{
		FieldID: f.fieldID,
		UserID:  user,
		Slot:    slot(t, "2024-03-15", "11:00", "13:00"),
	})
	if !errors.Is(err, booking.ErrSlotConflict) {
		t.Fatalf("overlapping booking err = %v, want ErrSlotConflict", err)
	}

	f.book(t, user, slot(t, "2024-03-15", "12:00", "14:00"))

	got, err := f.engine.Scheduler.ListReservations(ctx, f.fieldID, slot(t, "2024-03-15", "10:00", "11:00").Date)
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("reservations = %d, want 2", len(got))
	}
}

func TestBookOnceOtherFieldDoesNotConflict(t *testing.T) {
	f := setupEngine(t, nil)
	user := testutil.CreateUser(t, f.db)
	s := slot(t, "2024-03-15", "10:00", "12:00")
	f.book(t, user, s)

	otherField := testutil.CreateField(t, f.db)
	_, err := f.engine.Scheduler.BookOnce(context.Background(), booking.BookingRequest{
		FieldID: otherField,
		UserID:  user,
		Slot:    s,
	})
	if err != nil {
		t.Fatalf("book on other field: %v", err)
	}
}

func TestBookOnceValidation(t *testing.T) {
	f := setupEngine(t, nil)
	user := testutil.CreateUser(t, f.db)
	ctx := context.Background()

	_, err := f.engine.Scheduler.BookOnce(ctx, booking.BookingRequest{
		FieldID: f.fieldID,
		UserID:  user,
		Slot:    booking.TimeSlot{Date: slot(t, "2024-03-15", "10:00", "11:00").Date, Start: 700, End: 600},
	})
	if !errors.Is(err, booking.ErrInvalidSlot) {
		t.Fatalf("reversed slot err = %v, want ErrInvalidSlot", err)
	}

	_, err = f.engine.Scheduler.BookOnce(ctx, booking.BookingRequest{
		FieldID: f.fieldID,
		Slot:    slot(t, "2024-03-15", "10:00", "11:00"),
	})
	if !errors.Is(err, booking.ErrInvalidRequest) {
		t.Fatalf("missing user err = %v, want ErrInvalidRequest", err)
	}

	_, err = f.engine.Scheduler.BookOnce(ctx, booking.BookingRequest{
		FieldID: f.fieldID + 1000,
		UserID:  user,
		Slot:    slot(t, "2024-03-15", "10:00", "11:00"),
	})
	if !errors.Is(err, booking.ErrInvalidRequest) {
		t.Fatalf("unknown field err = %v, want ErrInvalidRequest", err)
	}
}

func TestConcurrentBookOnceSingleWinner(t *testing.T) {
	f := setupEngine(t, nil)
	users := testutil.CreateUsers(t, f.db, 8)
	s := slot(t, "2024-03-20", "18:00", "20:00")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for _, user := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.engine.Scheduler.BookOnce(context.Background(), booking.BookingRequest{
				FieldID: f.fieldID,
				UserID:  userID,
				Slot:    s,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, booking.ErrSlotConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(user)
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if successes != 1 || conflicts != len(users)-1 {
		t.Fatalf("successes = %d, conflicts = %d", successes, conflicts)
	}
}

func TestConcurrentBookOnceAcrossEngines(t *testing.T) {
	database := testutil.NewTestDB(t)
	fieldID := testutil.CreateField(t, database)
	users := testutil.CreateUsers(t, database, 6)
	s := slot(t, "2024-03-21", "18:00", "20:00")

	// Separate engines share no in-process locks, so only the store
	// transaction keeps the check and the insert together.
	var engines []*booking.Engine
	for range users {
		engines = append(engines, booking.New(sqlstore.New(database), nil))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i, user := range users {
		wg.Add(1)
		go func(engine *booking.Engine, userID int64) {
			defer wg.Done()
			_, err := engine.Scheduler.BookOnce(context.Background(), booking.BookingRequest{
				FieldID: fieldID,
				UserID:  userID,
				Slot:    s,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if !errors.Is(err, booking.ErrSlotConflict) {
				failures = append(failures, err)
			}
		}(engines[i], user)
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected errors: %v", failures)
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
}

func TestBookRecurringPartial(t *testing.T) {
	f := setupEngine(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db)
	other := testutil.CreateUser(t, f.db)

	base := slot(t, "2024-03-04", "19:00", "20:30")
	blocker := f.book(t, other, slot(t, "2024-03-18", "20:00", "21:00"))

	result, err := f.engine.Scheduler.BookRecurring(ctx, booking.RecurringRequest{
		FieldID: f.fieldID,
		UserID:  owner,
		Pattern: booking.Pattern{
			Frequency: booking.FrequencyWeekly,
			Interval:  1,
			Count:     4,
			BaseSlot:  base,
		},
	})
	if err != nil {
		t.Fatalf("BookRecurring: %v", err)
	}
	if len(result.Created) != 3 || len(result.Skipped) != 1 {
		t.Fatalf("created = %d, skipped = %d, want 3 and 1", len(result.Created), len(result.Skipped))
	}
	if !result.Partial() {
		t.Fatal("expected partial result")
	}
	skipped := result.Skipped[0]
	if skipped.Reason != booking.SkipSlotConflict || skipped.Slot.Date != blocker.Slot.Date {
		t.Fatalf("skipped = %+v", skipped)
	}
	for _, r := range result.Created {
		if r.SeriesID != result.SeriesID {
			t.Fatalf("reservation %d series = %q, want %q", r.ID, r.SeriesID, result.SeriesID)
		}
	}

	series, err := f.engine.Scheduler.Series(ctx, result.SeriesID)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("series length = %d, want 3", len(series))
	}

	cancelled, err := f.engine.Scheduler.CancelSeries(ctx, result.SeriesID)
	if err != nil {
		t.Fatalf("CancelSeries: %v", err)
	}
	if len(cancelled) != 3 {
		t.Fatalf("cancelled = %d, want 3", len(cancelled))
	}
}

func TestBookRecurringAllConflicted(t *testing.T) {
	f := setupEngine(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db)
	other := testutil.CreateUser(t, f.db)

	f.book(t, other, slot(t, "2024-03-04", "19:00", "20:00"))
	f.book(t, other, slot(t, "2024-03-05", "19:00", "20:00"))

	result, err := f.engine.Scheduler.BookRecurring(ctx, booking.RecurringRequest{
		FieldID: f.fieldID,
		UserID:  owner,
		Pattern: booking.Pattern{
			Frequency: booking.FrequencyDaily,
			Interval:  1,
			Count:     2,
			BaseSlot:  slot(t, "2024-03-04", "19:30", "20:30"),
		},
	})
	if !errors.Is(err, booking.ErrAllOccurrencesConflicted) {
		t.Fatalf("err = %v, want ErrAllOccurrencesConflicted", err)
	}
	if len(result.Skipped) != 2 || len(result.Created) != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestBookRecurringTooLarge(t *testing.T) {
	f := setupEngine(t, func(cfg *booking.Config) { cfg.MaxOccurrences = 10 })
	owner := testutil.CreateUser(t, f.db)

	_, err := f.engine.Scheduler.BookRecurring(context.Background(), booking.RecurringRequest{
		FieldID: f.fieldID,
		UserID:  owner,
		Pattern: booking.Pattern{
			Frequency: booking.FrequencyDaily,
			Interval:  1,
			Count:     11,
			BaseSlot:  slot(t, "2024-03-04", "19:00", "20:00"),
		},
	})
	if !errors.Is(err, booking.ErrRecurrenceTooLarge) {
		t.Fatalf("err = %v, want ErrRecurrenceTooLarge", err)
	}

	got, err := f.engine.Scheduler.ListReservations(context.Background(), f.fieldID, slot(t, "2024-03-04", "19:00", "20:00").Date)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("reservations = %d, want none written", len(got))
	}
}

func TestBookRecurringOutOfRangeWritesNothing(t *testing.T) {
	f := setupEngine(t, nil)
	owner := testutil.CreateUser(t, f.db)
	base := slot(t, "2024-03-01", "19:00", "20:00")

	_, err := f.engine.Scheduler.BookRecurring(context.Background(), booking.RecurringRequest{
		FieldID: f.fieldID,
		UserID:  owner,
		Pattern: booking.Pattern{
			Frequency: booking.FrequencyMonthly,
			Interval:  1 << 62,
			Count:     3,
			BaseSlot:  base,
		},
	})
	if !errors.Is(err, booking.ErrInvalidPattern) {
		t.Fatalf("err = %v, want ErrInvalidPattern", err)
	}

	got, err := f.engine.Scheduler.ListReservations(context.Background(), f.fieldID, base.Date)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("reservations = %d, want none written", len(got))
	}
}

func TestStatusTransitions(t *testing.T) {
	f := setupEngine(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db)
	s := slot(t, "2024-03-15", "10:00", "12:00")
	r := f.book(t, user, s)

	confirmed, err := f.engine.Scheduler.Confirm(ctx, r.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != booking.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", confirmed.Status)
	}

	cancelled, err := f.engine.Scheduler.Cancel(ctx, r.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if _, err := f.engine.Scheduler.Cancel(ctx, r.ID); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if _, err := f.engine.Scheduler.Confirm(ctx, r.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("Confirm cancelled err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.engine.Scheduler.Cancel(ctx, r.ID+100); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("Cancel missing err = %v, want ErrNotFound", err)
	}

	conflict, err := f.engine.Detector.HasConflict(ctx, f.fieldID, s, 0)
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if conflict {
		t.Fatal("cancelled reservation still conflicts")
	}
	f.book(t, user, s)
}

func TestHasConflictExcludesReservation(t *testing.T) {
	f := setupEngine(t, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db)
	r := f.book(t, user, slot(t, "2024-03-15", "10:00", "12:00"))

	conflict, err := f.engine.Detector.HasConflict(ctx, f.fieldID, slot(t, "2024-03-15", "11:00", "12:30"), r.ID)
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if conflict {
		t.Fatal("excluded reservation reported as conflict")
	}
	conflict, err = f.engine.Detector.HasConflict(ctx, f.fieldID, slot(t, "2024-03-15", "11:00", "12:30"), 0)
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if !conflict {
		t.Fatal("expected conflict")
	}
}
