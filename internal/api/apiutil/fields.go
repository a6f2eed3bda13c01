package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cancha-app/cancha/internal/timeutil"
)

const courtIDQueryKey = "court_id"

func ParseNonNegativeInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, FieldError{Field: field, Reason: "must be 0 or greater"}
	}
	return value, nil
}

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

func CourtIDFromQuery(r *http.Request) (int64, error) {
	return ParsePositiveInt64Field(r.URL.Query().Get(courtIDQueryKey), courtIDQueryKey)
}

// ParseDateField parses a YYYY-MM-DD calendar date.
func ParseDateField(raw string, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	date, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return date, nil
}

// ParseTimeField parses an HH:MM wall-clock time into a minute of day.
func ParseTimeField(raw string, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	minute, err := timeutil.ParseMinuteOfDay(raw)
	if err != nil {
		return 0, FieldError{Field: field, Reason: "must be an HH:MM time"}
	}
	return minute, nil
}

// PathID extracts a positive integer path parameter.
func PathID(r *http.Request, param string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(param))
	if raw == "" {
		return 0, FieldError{Field: param, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: param, Reason: "must be a positive integer"}
	}
	return value, nil
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
