// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/api/apiutil"
	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/contact"
	"github.com/cancha-app/cancha/internal/email"
	"github.com/cancha-app/cancha/internal/ratelimit"
	"github.com/cancha-app/cancha/internal/store"
	"github.com/cancha-app/cancha/internal/timeutil"
)

const reservationsQueryTimeout = 10 * time.Second

var (
	gateway     *booking.Gateway
	st          *store.Store
	mailer      email.EmailSender
	limiter     *ratelimit.Limiter
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// The mailer may be nil; notifications are then skipped. A nil limiter
// disables booking-attempt throttling.
func InitHandlers(g *booking.Gateway, s *store.Store, m email.EmailSender, l *ratelimit.Limiter) {
	if g == nil || s == nil {
		return
	}
	handlerOnce.Do(func() {
		gateway = g
		st = s
		mailer = m
		limiter = l
	})
}

type createRequest struct {
	CourtID       int64  `json:"court_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
}

type moveRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type reservationResponse struct {
	ID            int64  `json:"id"`
	CourtID       int64  `json:"court_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	Price         string `json:"price"`
	DepositAmount string `json:"deposit_amount"`
	DepositPaid   bool   `json:"deposit_paid"`
}

// POST /api/v1/reservations
func HandleCreateReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if gateway == nil || st == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.CourtID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "court_id must be greater than 0")
		return
	}
	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	startMinute, err := apiutil.ParseTimeField(req.StartTime, "start_time")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	endMinute, err := apiutil.ParseTimeField(req.EndTime, "end_time")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CustomerName == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "customer_name is required")
		return
	}

	// Phone is normalized to E.164 before anything touches storage.
	phone := req.CustomerPhone
	if phone != "" {
		normalized, err := contact.NormalizePhone(phone, "")
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, "customer_phone is not a valid phone number")
			return
		}
		phone = normalized
	}

	if limiter != nil {
		identifier := apiutil.FirstNonEmpty(req.CustomerEmail, phone, req.CustomerName)
		clientIP := ratelimit.GetClientIP(r, false)
		if result := limiter.CheckBooking(identifier, clientIP); !result.Allowed {
			ratelimit.LogRateLimitExceeded(identifier, clientIP, result.Reason)
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter/time.Second)+1))
			apiutil.WriteError(w, http.StatusTooManyRequests, "too many booking attempts, try again later")
			return
		}
		limiter.RecordBooking(identifier, clientIP)
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	court, err := st.DB().Queries.GetCourtByID(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	price, deposit, err := quote(court.PricePerHour, court.DepositPercent, endMinute-startMinute)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", court.ID).Msg("Court has an unparseable hourly rate")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	created, err := gateway.RequestBooking(ctx, req.CourtID, date, startMinute, endMinute, booking.Metadata{
		CustomerName:  req.CustomerName,
		CustomerPhone: phone,
		CustomerEmail: req.CustomerEmail,
		Price:         price,
		DepositAmount: deposit,
	})
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusCreated, reservationFromRow(created))
}

// GET /api/v1/reservations/{id}
func HandleGetReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if st == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	reservation, err := st.GetReservation(ctx, id)
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, reservationFromRow(reservation))
}

// GET /api/v1/reservations?court_id=&date=
//
// Returns all rows for the calendar view, cancelled included.
func HandleListReservations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if st == nil {
		logger.Error().Msg("Reservation handlers not initialized")
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

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	reservations, err := st.ReservationsByDate(ctx, courtID, date)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list reservations")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, reservationFromRow(reservation))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}

// PATCH /api/v1/reservations/{id}
//
// Moves or resizes the reservation; the full availability protocol re-runs
// for the new range.
func HandleMoveReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if gateway == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req moveRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	startMinute, err := apiutil.ParseTimeField(req.StartTime, "start_time")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	endMinute, err := apiutil.ParseTimeField(req.EndTime, "end_time")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	moved, err := gateway.MoveOrResize(ctx, id, date, startMinute, endMinute)
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, reservationFromRow(moved))
}

// POST /api/v1/reservations/{id}/confirm
func HandleConfirmReservation(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, booking.StatusConfirmed)
}

// POST /api/v1/reservations/{id}/cancel
func HandleCancelReservation(w http.ResponseWriter, r *http.Request) {
	handleTransition(w, r, booking.StatusCancelled)
}

// POST /api/v1/reservations/{id}/pay
func HandlePayReservation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if gateway == nil || st == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	paid, err := gateway.Transition(ctx, id, booking.StatusPaid)
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	depositPaid := true
	updated, err := st.UpdateReservation(ctx, id, booking.ReservationPatch{DepositPaid: &depositPaid})
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", id).Msg("Failed to flag deposit as paid")
		updated = paid
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, reservationFromRow(updated))
}

func handleTransition(w http.ResponseWriter, r *http.Request, next booking.Status) {
	logger := log.Ctx(r.Context())

	if gateway == nil || st == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	updated, err := gateway.Transition(ctx, id, next)
	if err != nil {
		apiutil.WriteBookingError(w, r, err)
		return
	}

	switch next {
	case booking.StatusConfirmed:
		notifyCustomer(ctx, updated, false)
	case booking.StatusCancelled:
		notifyCustomer(ctx, updated, true)
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, reservationFromRow(updated))
}

// notifyCustomer sends the confirmation or cancellation email without
// blocking the response.
func notifyCustomer(ctx context.Context, reservation booking.Reservation, cancelled bool) {
	if mailer == nil || reservation.CustomerEmail == "" {
		return
	}

	logger := log.Ctx(ctx)
	complexName, courtName := "", ""
	if court, err := st.DB().Queries.GetCourtByID(ctx, reservation.CourtID); err == nil {
		courtName = court.Name
		if cmplx, err := st.DB().Queries.GetComplexByID(ctx, court.ComplexID); err == nil {
			complexName = cmplx.Name
		}
	} else {
		logger.Warn().Err(err).Int64("court_id", reservation.CourtID).Msg("Could not load court for notification")
	}

	details := email.DetailsFromReservation(reservation, complexName, courtName)
	if cancelled {
		email.SendBookingCancellation(ctx, mailer, reservation, email.BuildBookingCancellation(details, ""), "", logger)
		return
	}
	email.SendBookingConfirmation(ctx, mailer, reservation, email.BuildBookingConfirmation(details), logger)
}

// quote prices a booking from the court's hourly rate, pro-rated by
// duration, and derives the deposit from the court's percentage.
func quote(pricePerHour string, depositPercent int64, durationMinutes int) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := decimal.NewFromString(pricePerHour)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	price := rate.Mul(decimal.NewFromInt(int64(durationMinutes))).Div(decimal.NewFromInt(60)).Round(2)
	deposit := price.Mul(decimal.NewFromInt(depositPercent)).Div(decimal.NewFromInt(100)).Round(2)
	return price, deposit, nil
}

func reservationFromRow(r booking.Reservation) reservationResponse {
	return reservationResponse{
		ID:            r.ID,
		CourtID:       r.CourtID,
		Date:          timeutil.FormatDate(r.Date),
		StartTime:     timeutil.FormatMinuteOfDay(r.StartMinute),
		EndTime:       timeutil.FormatMinuteOfDay(r.EndMinute),
		Status:        string(r.Status),
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CustomerEmail: r.CustomerEmail,
		Price:         r.Price.StringFixed(2),
		DepositAmount: r.DepositAmount.StringFixed(2),
		DepositPaid:   r.DepositPaid,
	}
}
