package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/fieldbook/internal/booking"
)

// PathID parses a positive integer path value.
func PathID(r *http.Request, name string) (int64, error) {
	return parsePositive(r.PathValue(name), name)
}

// QueryID parses a required positive integer query parameter.
func QueryID(r *http.Request, name string) (int64, error) {
	return parsePositive(r.URL.Query().Get(name), name)
}

// QueryDate parses a required YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string) (booking.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return booking.Date{}, FieldError{Field: name, Reason: "is required"}
	}
	d, err := booking.ParseDate(raw)
	if err != nil {
		return booking.Date{}, FieldError{Field: name, Reason: "must be YYYY-MM-DD"}
	}
	return d, nil
}

// QuerySlot reads date, start_time and end_time query parameters.
func QuerySlot(r *http.Request) (booking.TimeSlot, error) {
	q := r.URL.Query()
	return ParseSlot(q.Get("date"), q.Get("start_time"), q.Get("end_time"))
}

// ParseSlot builds a validated slot from its wire form.
func ParseSlot(date, start, end string) (booking.TimeSlot, error) {
	if strings.TrimSpace(date) == "" {
		return booking.TimeSlot{}, FieldError{Field: "date", Reason: "is required"}
	}
	d, err := booking.ParseDate(date)
	if err != nil {
		return booking.TimeSlot{}, FieldError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	startTime, err := booking.ParseTimeOfDay(start)
	if err != nil {
		return booking.TimeSlot{}, FieldError{Field: "start_time", Reason: "must be HH:MM"}
	}
	endTime, err := booking.ParseTimeOfDay(end)
	if err != nil {
		return booking.TimeSlot{}, FieldError{Field: "end_time", Reason: "must be HH:MM"}
	}
	return booking.NewTimeSlot(d, startTime, endTime)
}

func parsePositive(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: name, Reason: "is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, FieldError{Field: name, Reason: fmt.Sprintf("must be a positive integer, got %q", raw)}
	}
	return id, nil
}
