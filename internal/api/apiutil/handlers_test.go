package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/fieldbook/internal/booking"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("wrap: %w", booking.ErrInvalidSlot), want: http.StatusBadRequest},
		{err: booking.ErrInvalidPattern, want: http.StatusBadRequest},
		{err: FieldError{Field: "date", Reason: "is required"}, want: http.StatusBadRequest},
		{err: booking.ErrRecurrenceTooLarge, want: http.StatusUnprocessableEntity},
		{err: booking.ErrSlotConflict, want: http.StatusConflict},
		{err: booking.ErrAllOccurrencesConflicted, want: http.StatusConflict},
		{err: booking.ErrDuplicateEntry, want: http.StatusConflict},
		{err: booking.ErrWaitlistFull, want: http.StatusConflict},
		{err: booking.ErrNotWaiting, want: http.StatusConflict},
		{err: booking.ErrOfferExpired, want: http.StatusGone},
		{err: booking.ErrNotFound, want: http.StatusNotFound},
		{err: HandlerError{Status: http.StatusTeapot, Message: "tea"}, want: http.StatusTeapot},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := ErrorStatus(tt.err); got != tt.want {
				t.Fatalf("ErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("database is locked"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "locked") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestWriteErrorIncludesField(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), FieldError{Field: "start_time", Reason: "must be HH:MM"})

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusBadRequest || body.Field != "start_time" {
		t.Fatalf("status = %d, body = %+v", rec.Code, body)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"north"}`},
		{name: "unknown field", body: `{"name":"north","extra":1}`, wantErr: true},
		{name: "trailing data", body: `{"name":"north"}{}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr != (err != nil) {
				t.Fatalf("DecodeJSON err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot("2024-03-15", "10:00", "12:00")
	if err != nil {
		t.Fatalf("ParseSlot: %v", err)
	}
	if slot.String() != "2024-03-15 10:00-12:00" {
		t.Fatalf("slot = %s", slot)
	}

	_, err = ParseSlot("2024-03-15", "12:00", "10:00")
	if !errors.Is(err, booking.ErrInvalidSlot) {
		t.Fatalf("reversed slot err = %v, want ErrInvalidSlot", err)
	}

	_, err = ParseSlot("15/03/2024", "10:00", "12:00")
	var ferr FieldError
	if !errors.As(err, &ferr) || ferr.Field != "date" {
		t.Fatalf("bad date err = %v", err)
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/waitlist/abc/position", nil)
	req.SetPathValue("id", "abc")
	if _, err := PathID(req, "id"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	req.SetPathValue("id", "17")
	id, err := PathID(req, "id")
	if err != nil || id != 17 {
		t.Fatalf("PathID = %d, %v", id, err)
	}
}
