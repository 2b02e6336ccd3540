package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/booking"
)

// maxBodyBytes bounds request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// Respond writes payload and logs a failed write.
func Respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

// ErrorStatus maps engine errors to HTTP status codes.
func ErrorStatus(err error) int {
	var herr HandlerError
	var ferr FieldError
	switch {
	case errors.As(err, &herr):
		return herr.Status
	case errors.As(err, &ferr):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrInvalidSlot),
		errors.Is(err, booking.ErrInvalidPattern),
		errors.Is(err, booking.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrRecurrenceTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrSlotConflict),
		errors.Is(err, booking.ErrAllOccurrencesConflicted),
		errors.Is(err, booking.ErrDuplicateEntry),
		errors.Is(err, booking.ErrWaitlistFull),
		errors.Is(err, booking.ErrNotWaiting),
		errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, booking.ErrOfferExpired):
		return http.StatusGone
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// WriteError maps err to a status and writes it as JSON. Server errors are
// logged with the underlying cause and reported without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := ErrorStatus(err)
	body := ErrorResponse{Error: err.Error()}

	var ferr FieldError
	if errors.As(err, &ferr) {
		body.Field = ferr.Field
	}

	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		body = ErrorResponse{Error: http.StatusText(status)}
	} else {
		log.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	Respond(w, r, status, body)
}
