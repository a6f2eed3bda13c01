// internal/api/operatingwindows/handlers.go
package operatingwindows

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cancha-app/cancha/internal/api/apiutil"
	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/store"
	"github.com/cancha-app/cancha/internal/timeutil"
)

const windowsQueryTimeout = 5 * time.Second

var (
	st     *store.Store
	stOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *store.Store) {
	if s == nil {
		return
	}
	stOnce.Do(func() {
		st = s
	})
}

func loadStore() *store.Store {
	return st
}

type windowRequest struct {
	Day       int    `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available *bool  `json:"available"`
}

type windowResponse struct {
	ID        int64  `json:"id"`
	Day       int    `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// GET /api/v1/courts/{id}/operating-windows
func HandleListWindows(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), windowsQueryTimeout)
	defer cancel()

	windows, err := s.WeeklyOperatingWindows(ctx, courtID)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load operating windows")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load operating windows")
		return
	}

	out := make([]windowResponse, 0, len(windows))
	for _, win := range windows {
		out = append(out, windowFromRow(win))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}

// PUT /api/v1/courts/{id}/operating-windows
//
// Replaces the court's whole weekly schedule in one transaction. Sending an
// empty list closes the court.
func HandleReplaceWindows(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Store not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req []windowRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	windows := make([]booking.OperatingWindow, 0, len(req))
	for _, win := range req {
		parsed, err := windowFromRequest(courtID, win)
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		windows = append(windows, parsed)
	}

	ctx, cancel := context.WithTimeout(r.Context(), windowsQueryTimeout)
	defer cancel()

	if _, err := s.DB().Queries.GetCourtByID(ctx, courtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to update operating windows")
		return
	}

	if err := s.ReplaceOperatingWindows(ctx, courtID, windows); err != nil {
		var bookingErr *booking.Error
		if errors.As(err, &bookingErr) {
			apiutil.WriteBookingError(w, r, err)
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to replace operating windows")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to update operating windows")
		return
	}

	logger.Info().Int64("court_id", courtID).Int("windows", len(windows)).Msg("Operating windows replaced")

	updated, err := s.WeeklyOperatingWindows(ctx, courtID)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to reload operating windows")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load operating windows")
		return
	}

	out := make([]windowResponse, 0, len(updated))
	for _, win := range updated {
		out = append(out, windowFromRow(win))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}

func windowFromRequest(courtID int64, req windowRequest) (booking.OperatingWindow, error) {
	if req.Day < 0 || req.Day > 6 {
		return booking.OperatingWindow{}, apiutil.FieldError{Field: "day", Reason: "must be between 0 (Monday) and 6 (Sunday)"}
	}
	start, err := apiutil.ParseTimeField(req.StartTime, "start_time")
	if err != nil {
		return booking.OperatingWindow{}, err
	}
	end, err := apiutil.ParseTimeField(req.EndTime, "end_time")
	if err != nil {
		return booking.OperatingWindow{}, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return booking.OperatingWindow{
		CourtID:     courtID,
		Day:         timeutil.Weekday(req.Day),
		StartMinute: start,
		EndMinute:   end,
		Available:   available,
	}, nil
}

func windowFromRow(win booking.OperatingWindow) windowResponse {
	return windowResponse{
		ID:        win.ID,
		Day:       int(win.Day),
		StartTime: timeutil.FormatMinuteOfDay(win.StartMinute),
		EndTime:   timeutil.FormatMinuteOfDay(win.EndMinute),
		Available: win.Available,
	}
}
