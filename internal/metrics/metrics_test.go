package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordBooking("single", "created")
	m.RecordBooking("single", "conflict")
	m.RecordBooking("single", "created")
	m.RecordPromotions("cancel", 1)
	m.RecordPromotions("sweep", 0)
	m.RecordJobRun("waitlist_cleanup", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.bookings.WithLabelValues("single", "created")); got != 2 {
		t.Fatalf("created bookings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.promotions.WithLabelValues("cancel")); got != 1 {
		t.Fatalf("cancel promotions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.promotions); got != 1 {
		t.Fatalf("promotion series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("waitlist_cleanup", "error")); got != 1 {
		t.Fatalf("job errors = %v, want 1", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodPost, "POST /api/v1/reservations", http.StatusCreated, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `fieldbook_http_requests_total{method="POST",path="POST /api/v1/reservations",status="201"} 1`) {
		t.Fatalf("missing request counter:\n%s", rec.Body.String())
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordBooking("single", "created")
	m.RecordWaitlistJoin("joined")
	m.RecordPromotions("sweep", 3)
	m.RecordJobRun("x", time.Second, nil)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
