// internal/api/waitlist/handlers.go
package waitlist

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/api/apiutil"
	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/notify"
)

const waitlistRequestTimeout = 10 * time.Second

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

// RegisterRoutes mounts the waitlist endpoints.
func RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/waitlist", HandleWaitlistJoin)
	mux.HandleFunc("GET /api/v1/waitlist", HandleWaitlistList)
	mux.HandleFunc("GET /api/v1/waitlist/top", HandleWaitlistTop)
	mux.HandleFunc("POST /api/v1/waitlist/promote", HandleWaitlistPromote)
	mux.HandleFunc("GET /api/v1/waitlist/{id}", HandleWaitlistGet)
	mux.HandleFunc("DELETE /api/v1/waitlist/{id}", HandleWaitlistLeave)
	mux.HandleFunc("GET /api/v1/waitlist/{id}/position", HandleWaitlistPosition)
	mux.HandleFunc("POST /api/v1/waitlist/{id}/accept", HandleWaitlistAccept)
}

type joinRequest struct {
	UserID    int64  `json:"user_id"`
	FieldID   int64  `json:"field_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Priority  int    `json:"priority"`
}

type slotRequest struct {
	FieldID   int64  `json:"field_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type joinResponse struct {
	Entry    booking.WaitlistEntry `json:"entry"`
	Position int                   `json:"position"`
}

type positionResponse struct {
	EntryID  int64 `json:"entry_id"`
	Position int   `json:"position"`
}

type topResponse struct {
	Entry *booking.WaitlistEntry `json:"entry"`
}

type promoteResponse struct {
	Promotion *booking.Promotion `json:"promotion"`
}

// POST /api/v1/waitlist
func HandleWaitlistJoin(w http.ResponseWriter, r *http.Request) {
	e, _, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}

	var req joinRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	slot, err := apiutil.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	entry, err := e.Waitlist.Enqueue(ctx, booking.WaitlistRequest{
		UserID:   req.UserID,
		FieldID:  req.FieldID,
		Slot:     slot,
		Priority: req.Priority,
	})
	m.RecordWaitlistJoin(joinOutcome(err))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	position, err := e.Waitlist.Position(ctx, entry.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("waitlist_id", entry.ID).
		Int64("field_id", entry.FieldID).
		Int("position", position).
		Msg("Joined waitlist")
	apiutil.Respond(w, r, http.StatusCreated, joinResponse{Entry: entry, Position: position})
}

// GET /api/v1/waitlist?field_id=&date=&start_time=&end_time=
func HandleWaitlistList(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	fieldID, slot, ok := slotFromQuery(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	entries, err := e.Waitlist.List(ctx, fieldID, slot)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if entries == nil {
		entries = []booking.WaitlistEntry{}
	}
	apiutil.Respond(w, r, http.StatusOK, entries)
}

// GET /api/v1/waitlist/top?field_id=&date=&start_time=&end_time=
func HandleWaitlistTop(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	fieldID, slot, ok := slotFromQuery(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	top, err := e.Waitlist.PeekTop(ctx, fieldID, slot)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, topResponse{Entry: top})
}

// POST /api/v1/waitlist/promote
func HandleWaitlistPromote(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}

	var req slotRequest
	if err := apiutil.DecodeJSON(w, r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err})
		return
	}
	if req.FieldID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "field_id", Reason: "must be a positive integer"})
		return
	}
	slot, err := apiutil.ParseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	promotion, err := e.Promoter.Promote(ctx, req.FieldID, slot)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if promotion != nil {
		m.RecordPromotions("manual", 1)
		n.WaitlistPromoted(r.Context(), *promotion)
	}
	apiutil.Respond(w, r, http.StatusOK, promoteResponse{Promotion: promotion})
}

// GET /api/v1/waitlist/{id}
func HandleWaitlistGet(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	entry, err := e.Waitlist.Get(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, entry)
}

// GET /api/v1/waitlist/{id}/position
func HandleWaitlistPosition(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	position, err := e.Waitlist.Position(ctx, id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.Respond(w, r, http.StatusOK, positionResponse{EntryID: id, Position: position})
}

// DELETE /api/v1/waitlist/{id}
func HandleWaitlistLeave(w http.ResponseWriter, r *http.Request) {
	e, _, _ := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	if err := e.Waitlist.Leave(ctx, id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Int64("waitlist_id", id).Msg("Left waitlist")
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/waitlist/{id}/accept
func HandleWaitlistAccept(w http.ResponseWriter, r *http.Request) {
	e, n, m := loadDeps()
	if !requireEngine(w, r, e) {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), waitlistRequestTimeout)
	defer cancel()

	created, err := e.Promoter.Accept(ctx, id)
	m.RecordBooking("waitlist", acceptOutcome(err))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Int64("waitlist_id", id).
		Int64("reservation_id", created.ID).
		Msg("Waitlist offer accepted")
	n.ReservationCreated(r.Context(), []booking.Reservation{created})
	apiutil.Respond(w, r, http.StatusCreated, created)
}

func slotFromQuery(w http.ResponseWriter, r *http.Request) (int64, booking.TimeSlot, bool) {
	fieldID, err := apiutil.QueryID(r, "field_id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return 0, booking.TimeSlot{}, false
	}
	slot, err := apiutil.QuerySlot(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return 0, booking.TimeSlot{}, false
	}
	return fieldID, slot, true
}

func joinOutcome(err error) string {
	switch {
	case err == nil:
		return "joined"
	case errors.Is(err, booking.ErrDuplicateEntry):
		return "duplicate"
	case errors.Is(err, booking.ErrWaitlistFull):
		return "full"
	case apiutil.ErrorStatus(err) < http.StatusInternalServerError:
		return "rejected"
	}
	return "error"
}

func acceptOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, booking.ErrOfferExpired):
		return "expired"
	case errors.Is(err, booking.ErrSlotConflict):
		return "conflict"
	case apiutil.ErrorStatus(err) < http.StatusInternalServerError:
		return "rejected"
	}
	return "error"
}

func requireEngine(w http.ResponseWriter, r *http.Request, e *booking.Engine) bool {
	if e != nil {
		return true
	}
	apiutil.WriteError(w, r, errors.New("waitlist handlers not initialized"))
	return false
}
