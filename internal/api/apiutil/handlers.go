package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cancha-app/cancha/internal/booking"
)

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

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
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

// WriteError emits a JSON error body with a stable shape.
func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, map[string]string{"error": message})
}

// WriteBookingError maps the booking error taxonomy onto HTTP statuses:
// invalid ranges are client mistakes, closed hours and taken slots are
// business rejections, and storage failures are service unavailability.
func WriteBookingError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, booking.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "reservation not found")
		return
	}

	var bookingErr *booking.Error
	if !errors.As(err, &bookingErr) {
		log.Ctx(r.Context()).Error().Err(err).Msg("Unclassified booking error")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch bookingErr.Kind {
	case booking.KindInvalidRange:
		status = http.StatusBadRequest
	case booking.KindOutsideHours:
		status = http.StatusUnprocessableEntity
	case booking.KindSlotTaken:
		status = http.StatusConflict
	case booking.KindStorageUnavailable:
		status = http.StatusServiceUnavailable
		log.Ctx(r.Context()).Error().Err(err).Msg("Storage unavailable")
	}

	_ = WriteJSON(w, status, map[string]string{
		"error": bookingErr.Message,
		"kind":  string(bookingErr.Kind),
	})
}
