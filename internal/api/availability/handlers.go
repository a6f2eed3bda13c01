// internal/api/availability/handlers.go
package availability

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
	"github.com/cancha-app/cancha/internal/db"
	"github.com/cancha-app/cancha/internal/timeutil"
)

const availabilityQueryTimeout = 5 * time.Second

var (
	gateway     *booking.Gateway
	queries     *db.Queries
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(g *booking.Gateway, q *db.Queries) {
	if g == nil || q == nil {
		return
	}
	handlerOnce.Do(func() {
		gateway = g
		queries = q
	})
}

type slotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type availabilityResponse struct {
	CourtID     int64          `json:"court_id"`
	Date        string         `json:"date"`
	SlotMinutes int            `json:"slot_minutes"`
	FreeSlots   []slotResponse `json:"free_slots"`
}

// GET /api/v1/availability?court_id=&date=
//
// Free slots are recomputed on every request; there is no cache to go stale
// and the booking path re-verifies anyway.
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if gateway == nil || queries == nil {
		logger.Error().Msg("Availability handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	courtID, err := apiutil.CourtIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := apiutil.ParseDateField(r.URL.Query().Get("date"), "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	court, err := queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load court")
		return
	}

	step := int(court.SlotMinutes)
	if step <= 0 {
		step = booking.DefaultSlotMinutes
	}

	slots, err := gateway.FreeSlots(ctx, courtID, date, step)
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	out := availabilityResponse{
		CourtID:     courtID,
		Date:        timeutil.FormatDate(date),
		SlotMinutes: step,
		FreeSlots:   make([]slotResponse, 0, len(slots)),
	}
	for _, slot := range slots {
		out.FreeSlots = append(out.FreeSlots, slotResponse{
			StartTime: timeutil.FormatMinuteOfDay(slot.Start),
			EndTime:   timeutil.FormatMinuteOfDay(slot.End),
		})
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}
