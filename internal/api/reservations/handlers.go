// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/api/apiutil"
	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/notify"
)

const reservationRequestTimeout = 10 * time.Second

var (
	depsMu   sync.RWMutex
	engine   *booking.Engine
	notifier notify.Notifier = notify.Nop{}
	recorder *metrics.Metrics
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine, n notify.Notifier, m *metrics.Metrics) {
	depsMu.Lock()
	defer depsMu.Unlock()
	engine = e
	if n == nil {
		n = notify.Nop{}
	}
	notifier = n
	recorder = m
}

func loadDeps() (*booking.Engine, notify.Notifier, *metrics.Metrics) {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return engine, notifier, recorder
}

// RegisterRoutes mounts the reservation and series endpoints.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/reservations", HandleReservationCreate)
	mux.HandleFunc("GET /api/v1/reservations", HandleReservationsList)
	mux.HandleFunc("POST /api/v1/reservations/recurring", HandleRecurringCreate)
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", HandleReservationCancel)
	mux.HandleFunc("POST /api/v1/reservations/{id}/confirm", HandleReservationConfirm)
	mux.HandleFunc("GET /api/v1/series/{id}", HandleSeriesGet)
	mux.HandleFunc("POST /api/v1/series/{id}/cancel", HandleSeriesCancel)
}

type createReservationRequest struct {
	FieldID   int64  `json:"field_id"`
	UserID    int64  `json:"user_id"`
	TeamID    *int64 `json:"team_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type recurringReservationRequest struct {
	createReservationRequest
	Frequency  string   `json:"frequency"`
	Interval   int      `json:"interval"`
	Count      int      `json:"count"`
	Until      string   `json:"until"`
	DaysOfWeek []string `json:"days_of_week"`
	Exceptions []string `json:"exceptions"`
}

type recurringResponse struct {
	booking.BatchResult
	Error string `json:"error,omitempty"`
}

type cancelResponse struct {
	Reservation booking.Reservation `json:"reservation"`
	Promotion   *booking.Promotion  `json:"promotion,omitempty"`
}

type seriesCancelResponse struct {
	Cancelled  []booking.Reservation `json:"cancelled"`
	Promotions []booking.Promotion   `json:"promotions"`
}

// POST /api/v1/reservations
func HandleReservationCreate(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}

	var req createReservationRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	slot, err := apiutil.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	created, err := e.Scheduler.BookOnce(ctx, booking.BookingRequest{
		FieldID: req.FieldID,
		UserID:  req.UserID,
		TeamID:  req.TeamID,
		Slot:    slot,
	})
	m.RecordBooking("single", bookingOutcome(err))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("reservation_id", created.ID).
		Int64("field_id", created.FieldID).
		Str("slot", created.Slot.String()).
		Msg("Reservation created")

	n.ReservationCreated(r.Context(), []booking.Reservation{created})
	apiutil.Respond(w, r, http.StatusCreated, created)
}

// POST /api/v1/reservations/recurring
func HandleRecurringCreate(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}

	var req recurringReservationRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	pattern, err := req.pattern()
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	result, err := e.Scheduler.BookRecurring(ctx, booking.RecurringRequest{
		FieldID: req.FieldID,
		UserID:  req.UserID,
		TeamID:  req.TeamID,
		Pattern: pattern,
	})
	m.RecordBooking("recurring", batchOutcome(result, err))
	if len(result.Created) > 0 {
		n.ReservationCreated(r.Context(), result.Created)
	}

	if result.Created == nil {
		result.Created = []booking.Reservation{}
	}
	if result.Skipped == nil {
		result.Skipped = []booking.Skipped{}
	}

	switch {
	case errors.Is(err, booking.ErrAllOccurrencesConflicted):
		apiutil.Respond(w, r, http.StatusConflict, recurringResponse{BatchResult: result, Error: err.Error()})
	case err != nil:
		if len(result.Created) > 0 {
			log.Ctx(r.Context()).Warn().
				Str("series_id", result.SeriesID).
				Int("created", len(result.Created)).
				Msg("Recurring booking stopped after partial commit")
		}
		apiutil.WriteError(w, r, err)
	case result.Partial():
		apiutil.Respond(w, r, http.StatusMultiStatus, recurringResponse{BatchResult: result})
	default:
		apiutil.Respond(w, r, http.StatusCreated, recurringResponse{BatchResult: result})
	}
}

// POST /api/v1/reservations/{id}/cancel
func HandleReservationCancel(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	cancelled, err := e.Scheduler.Cancel(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	resp := cancelResponse{Reservation: cancelled}
	resp.Promotion = promoteFreed(ctx, e, n, m, cancelled)
	apiutil.Respond(w, r, http.StatusOK, resp)
}

// POST /api/v1/reservations/{id}/confirm
func HandleReservationConfirm(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	confirmed, err := e.Scheduler.Confirm(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, confirmed)
}

// GET /api/v1/reservations?field_id=&date=
func HandleReservationsList(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	fieldID, err := apiutil.QueryID(r, "field_id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := apiutil.QueryDate(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	list, err := e.Scheduler.ListReservations(ctx, fieldID, date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []booking.Reservation{}
	}
	apiutil.Respond(w, r, http.StatusOK, list)
}

// GET /api/v1/series/{id}
func HandleSeriesGet(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	seriesID := strings.TrimSpace(r.PathValue("id"))

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	series, err := e.Scheduler.Series(ctx, seriesID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if len(series) == 0 {
		apiutil.WriteError(w, r, fmt.Errorf("series %s: %w", seriesID, booking.ErrNotFound))
		return
	}
	apiutil.Respond(w, r, http.StatusOK, series)
}

// POST /api/v1/series/{id}/cancel
func HandleSeriesCancel(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	seriesID := strings.TrimSpace(r.PathValue("id"))

	ctx, cancel := context.WithTimeout(r.Context(), reservationRequestTimeout)
	defer cancel()

	cancelled, err := e.Scheduler.CancelSeries(ctx, seriesID)
	resp := seriesCancelResponse{
		Cancelled:  cancelled,
		Promotions: []booking.Promotion{},
	}
	for _, res := range cancelled {
		if promotion := promoteFreed(ctx, e, n, m, res); promotion != nil {
			resp.Promotions = append(resp.Promotions, *promotion)
		}
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if resp.Cancelled == nil {
		resp.Cancelled = []booking.Reservation{}
	}
	apiutil.Respond(w, r, http.StatusOK, resp)
}

// promoteFreed offers a cancelled reservation's slot to the waitlist. A
// failure is logged and left for the promotion sweep.
func promoteFreed(ctx context.Context, e *booking.Engine, n notify.Notifier, m *metrics.Metrics, cancelled booking.Reservation) *booking.Promotion {
	promotion, err := e.Promoter.Promote(ctx, cancelled.FieldID, cancelled.Slot)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int64("reservation_id", cancelled.ID).
			Int64("field_id", cancelled.FieldID).
			Msg("Failed to promote waitlist after cancellation")
		return nil
	}
	if promotion == nil {
		return nil
	}
	m.RecordPromotions("cancel", 1)
	n.WaitlistPromoted(ctx, *promotion)
	return promotion
}

func (req recurringReservationRequest) pattern() (booking.Pattern, error) {
	base, err := apiutil.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return booking.Pattern{}, err
	}

	interval := req.Interval
	if interval == 0 {
		interval = 1
	}
	pattern := booking.Pattern{
		Frequency: booking.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		Interval:  interval,
		Count:     req.Count,
		BaseSlot:  base,
	}

	if strings.TrimSpace(req.Until) != "" {
		until, err := booking.ParseDate(req.Until)
		if err != nil {
			return booking.Pattern{}, apiutil.FieldError{Field: "until", Reason: "must be YYYY-MM-DD"}
		}
		pattern.Until = &until
	}
	for _, raw := range req.DaysOfWeek {
		day, err := parseWeekday(raw)
		if err != nil {
			return booking.Pattern{}, err
		}
		pattern.DaysOfWeek = append(pattern.DaysOfWeek, day)
	}
	for _, raw := range req.Exceptions {
		d, err := booking.ParseDate(raw)
		if err != nil {
			return booking.Pattern{}, apiutil.FieldError{Field: "exceptions", Reason: fmt.Sprintf("invalid date %q", raw)}
		}
		pattern.Exceptions = append(pattern.Exceptions, d)
	}
	return pattern, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(raw string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return 0, apiutil.FieldError{Field: "days_of_week", Reason: fmt.Sprintf("unknown weekday %q", raw)}
	}
	return day, nil
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, booking.ErrSlotConflict):
		return "conflict"
	case apiutil.ErrorStatus(err) < http.StatusInternalServerError:
		return "rejected"
	}
	return "error"
}

func batchOutcome(result booking.BatchResult, err error) string {
	switch {
	case errors.Is(err, booking.ErrAllOccurrencesConflicted):
		return "conflict"
	case err != nil:
		return bookingOutcome(err)
	case result.Partial():
		return "partial"
	}
	return "created"
}

func requireEngine(w http.ResponseWriter, r *http.Request, e *booking.Engine) bool {
	if e != nil {
		return true
	}
	apiutil.WriteError(w, r, errors.New("reservation handlers not initialized"))
	return false
}
