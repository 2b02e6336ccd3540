package waitlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/booking/sqlstore"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/testutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type waitlistTest struct {
	mux      *http.ServeMux
	engine   *booking.Engine
	clock    *fakeClock
	notifier *testutil.RecordingNotifier
	fieldID  int64
	users    []int64
}

func setupWaitlistTest(t *testing.T, maxSize int) *waitlistTest {
	t.Helper()

	database := testutil.NewTestDB(t)
	clock := &fakeClock{now: time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)}
	cfg := booking.DefaultConfig()
	cfg.AcceptanceWindow = time.Hour
	cfg.MaxWaitlistSize = maxSize
	cfg.Clock = clock
	e := booking.New(sqlstore.New(database), cfg)
	n := &testutil.RecordingNotifier{}

	// Save and restore global state
	prevEngine, prevNotifier, prevMetrics := loadDeps()
	t.Cleanup(func() {
		InitHandlers(prevEngine, prevNotifier, prevMetrics)
	})
	InitHandlers(e, n, metrics.New())

	mux := http.NewServeMux()
	RegisterRoutes(mux)

	return &waitlistTest{
		mux:      mux,
		engine:   e,
		clock:    clock,
		notifier: n,
		fieldID:  testutil.CreateField(t, database),
		users:    testutil.CreateUsers(t, database, 4),
	}
}

func (wt *waitlistTest) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	wt.mux.ServeHTTP(rec, req)
	return rec
}

func (wt *waitlistTest) join(t *testing.T, userID int64, priority int) (*httptest.ResponseRecorder, joinResponse) {
	t.Helper()
	rec := wt.do(t, http.MethodPost, "/api/v1/waitlist", fmt.Sprintf(
		`{"user_id":%d,"field_id":%d,"date":"2030-06-03","start_time":"10:00","end_time":"12:00","priority":%d}`,
		userID, wt.fieldID, priority))
	var resp joinResponse
	if rec.Code == http.StatusCreated {
		decode(t, rec, &resp)
	}
	return rec, resp
}

func (wt *waitlistTest) slotQuery() string {
	return fmt.Sprintf("field_id=%d&date=2030-06-03&start_time=10:00&end_time=12:00", wt.fieldID)
}

func (wt *waitlistTest) slot(t *testing.T) booking.TimeSlot {
	t.Helper()
	d, _ := booking.ParseDate("2030-06-03")
	s, err := booking.NewTimeSlot(d, booking.NewTimeOfDay(10, 0), booking.NewTimeOfDay(12, 0))
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	return s
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleWaitlistJoinRanksByPriority(t *testing.T) {
	wt := setupWaitlistTest(t, 0)

	rec, a := wt.join(t, wt.users[0], 1)
	if rec.Code != http.StatusCreated || a.Position != 1 {
		t.Fatalf("join A status = %d, position = %d", rec.Code, a.Position)
	}
	wt.clock.Advance(time.Minute)
	_, b := wt.join(t, wt.users[1], 5)
	if b.Position != 1 {
		t.Fatalf("higher priority position = %d, want 1", b.Position)
	}

	rec = wt.do(t, http.MethodGet, fmt.Sprintf("/api/v1/waitlist/%d/position", a.Entry.ID), "")
	var pos positionResponse
	decode(t, rec, &pos)
	if pos.Position != 2 {
		t.Fatalf("A position = %d, want 2", pos.Position)
	}

	rec = wt.do(t, http.MethodGet, "/api/v1/waitlist/top?"+wt.slotQuery(), "")
	var top topResponse
	decode(t, rec, &top)
	if top.Entry == nil || top.Entry.ID != b.Entry.ID {
		t.Fatalf("top = %+v, want entry %d", top.Entry, b.Entry.ID)
	}

	rec = wt.do(t, http.MethodGet, "/api/v1/waitlist?"+wt.slotQuery(), "")
	var list []booking.WaitlistEntry
	decode(t, rec, &list)
	if len(list) != 2 || list[0].ID != b.Entry.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestHandleWaitlistJoinRejects(t *testing.T) {
	wt := setupWaitlistTest(t, 2)

	wt.join(t, wt.users[0], 0)
	if rec, _ := wt.join(t, wt.users[0], 0); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
	wt.join(t, wt.users[1], 0)
	if rec, _ := wt.join(t, wt.users[2], 0); rec.Code != http.StatusConflict {
		t.Fatalf("full status = %d, want 409", rec.Code)
	}

	rec := wt.do(t, http.MethodPost, "/api/v1/waitlist", fmt.Sprintf(
		`{"user_id":%d,"field_id":%d,"date":"2030-06-03","start_time":"12:00","end_time":"10:00"}`,
		wt.users[3], wt.fieldID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid slot status = %d, want 400", rec.Code)
	}
}

func TestHandleWaitlistTopEmpty(t *testing.T) {
	wt := setupWaitlistTest(t, 0)

	rec := wt.do(t, http.MethodGet, "/api/v1/waitlist/top?"+wt.slotQuery(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"entry":null`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = wt.do(t, http.MethodGet, "/api/v1/waitlist/top?field_id=1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing slot status = %d, want 400", rec.Code)
	}
}

func TestHandleWaitlistLeave(t *testing.T) {
	wt := setupWaitlistTest(t, 0)
	_, a := wt.join(t, wt.users[0], 0)

	rec := wt.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/waitlist/%d", a.Entry.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("leave status = %d", rec.Code)
	}
	rec = wt.do(t, http.MethodGet, fmt.Sprintf("/api/v1/waitlist/%d", a.Entry.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after leave status = %d, want 404", rec.Code)
	}
	rec = wt.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/waitlist/%d", a.Entry.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second leave status = %d, want 404", rec.Code)
	}
}

func TestHandleWaitlistPromoteAndAccept(t *testing.T) {
	wt := setupWaitlistTest(t, 0)
	_, a := wt.join(t, wt.users[0], 0)
	wt.clock.Advance(time.Minute)
	_, b := wt.join(t, wt.users[1], 0)

	body := fmt.Sprintf(`{"field_id":%d,"date":"2030-06-03","start_time":"10:00","end_time":"12:00"}`, wt.fieldID)
	rec := wt.do(t, http.MethodPost, "/api/v1/waitlist/promote", body)
	var promoted promoteResponse
	decode(t, rec, &promoted)
	if rec.Code != http.StatusOK || promoted.Promotion == nil || promoted.Promotion.EntryID != a.Entry.ID {
		t.Fatalf("promote status = %d, promotion = %+v", rec.Code, promoted.Promotion)
	}
	if got := wt.notifier.Promotions(); len(got) != 1 {
		t.Fatalf("promotion notifications = %d, want 1", len(got))
	}

	rec = wt.do(t, http.MethodGet, fmt.Sprintf("/api/v1/waitlist/%d/position", a.Entry.ID), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("position of notified entry status = %d, want 409", rec.Code)
	}

	rec = wt.do(t, http.MethodPost, fmt.Sprintf("/api/v1/waitlist/%d/accept", a.Entry.ID), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("accept status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created booking.Reservation
	decode(t, rec, &created)
	if created.UserID != wt.users[0] || created.Slot != wt.slot(t) {
		t.Fatalf("reservation = %+v", created)
	}
	if got := wt.notifier.Created(); len(got) != 1 {
		t.Fatalf("reservation notifications = %d, want 1", len(got))
	}

	// The slot is booked again, so B is not offered it.
	rec = wt.do(t, http.MethodPost, "/api/v1/waitlist/promote", body)
	decode(t, rec, &promoted)
	if promoted.Promotion != nil {
		t.Fatalf("promotion while booked = %+v", promoted.Promotion)
	}
	rec = wt.do(t, http.MethodGet, fmt.Sprintf("/api/v1/waitlist/%d/position", b.Entry.ID), "")
	var pos positionResponse
	decode(t, rec, &pos)
	if pos.Position != 1 {
		t.Fatalf("B position = %d, want 1", pos.Position)
	}
}

func TestHandleWaitlistAcceptAfterWindow(t *testing.T) {
	wt := setupWaitlistTest(t, 0)
	_, a := wt.join(t, wt.users[0], 0)

	if _, err := wt.engine.Promoter.Promote(context.Background(), wt.fieldID, wt.slot(t)); err != nil {
		t.Fatalf("promote: %v", err)
	}
	wt.clock.Advance(2 * time.Hour)

	rec := wt.do(t, http.MethodPost, fmt.Sprintf("/api/v1/waitlist/%d/accept", a.Entry.ID), "")
	if rec.Code != http.StatusGone {
		t.Fatalf("late accept status = %d, want 410", rec.Code)
	}
}
