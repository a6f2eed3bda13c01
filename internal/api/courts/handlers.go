// internal/api/courts/handlers.go
package courts

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/api/apiutil"
	"github.com/cancha-app/cancha/internal/db"
)

const courtsQueryTimeout = 5 * time.Second

var (
	queries     *db.Queries
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *db.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

func loadQueries() *db.Queries {
	return queries
}

type complexRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type complexResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Approved bool   `json:"approved"`
}

type courtRequest struct {
	ComplexID      int64  `json:"complex_id"`
	Name           string `json:"name"`
	Surface        string `json:"surface"`
	PricePerHour   string `json:"price_per_hour"`
	DepositPercent int64  `json:"deposit_percent"`
	SlotMinutes    int64  `json:"slot_minutes"`
}

type courtResponse struct {
	ID             int64  `json:"id"`
	ComplexID      int64  `json:"complex_id"`
	Name           string `json:"name"`
	Surface        string `json:"surface"`
	PricePerHour   string `json:"price_per_hour"`
	DepositPercent int64  `json:"deposit_percent"`
	SlotMinutes    int64  `json:"slot_minutes"`
}

// POST /api/v1/complexes
func HandleCreateComplex(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req complexRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	created, err := q.CreateComplex(ctx, db.CreateComplexParams{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create complex")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create complex")
		return
	}

	logger.Info().Int64("complex_id", created.ID).Msg("Complex registered")
	_ = apiutil.WriteJSON(w, http.StatusCreated, complexFromRow(created))
}

// POST /api/v1/complexes/{id}/approve
func HandleApproveComplex(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	approved, err := q.ApproveComplex(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "complex not found")
			return
		}
		logger.Error().Err(err).Int64("complex_id", id).Msg("Failed to approve complex")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to approve complex")
		return
	}

	logger.Info().Int64("complex_id", id).Msg("Complex approved")
	_ = apiutil.WriteJSON(w, http.StatusOK, complexFromRow(approved))
}

// GET /api/v1/complexes
func HandleListComplexes(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	rows, err := q.ListComplexes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list complexes")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to list complexes")
		return
	}

	out := make([]complexResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, complexFromRow(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}

// POST /api/v1/courts
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateCourtRequest(req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	cmplx, err := q.GetComplexByID(ctx, req.ComplexID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "complex not found")
			return
		}
		logger.Error().Err(err).Int64("complex_id", req.ComplexID).Msg("Failed to load complex")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create court")
		return
	}
	if !cmplx.Approved {
		apiutil.WriteError(w, http.StatusUnprocessableEntity, "complex is not approved yet")
		return
	}

	slotMinutes := req.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = 60
	}

	created, err := q.CreateCourt(ctx, db.CreateCourtParams{
		ComplexID:      req.ComplexID,
		Name:           req.Name,
		Surface:        req.Surface,
		PricePerHour:   req.PricePerHour,
		DepositPercent: req.DepositPercent,
		SlotMinutes:    slotMinutes,
	})
	if err != nil {
		logger.Error().Err(err).Int64("complex_id", req.ComplexID).Msg("Failed to create court")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create court")
		return
	}

	logger.Info().Int64("court_id", created.ID).Int64("complex_id", req.ComplexID).Msg("Court registered")
	_ = apiutil.WriteJSON(w, http.StatusCreated, courtFromRow(created))
}

// GET /api/v1/courts?complex_id=
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	complexID, err := apiutil.ParsePositiveInt64Field(r.URL.Query().Get("complex_id"), "complex_id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	rows, err := q.ListCourtsByComplex(ctx, complexID)
	if err != nil {
		logger.Error().Err(err).Int64("complex_id", complexID).Msg("Failed to list courts")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to list courts")
		return
	}

	out := make([]courtResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, courtFromRow(row))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, out)
}

// GET /api/v1/courts/{id}
func HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	court, err := q.GetCourtByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", id).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load court")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, courtFromRow(court))
}

func validateCourtRequest(req courtRequest) error {
	if req.ComplexID <= 0 {
		return apiutil.FieldError{Field: "complex_id", Reason: "must be greater than 0"}
	}
	if req.Name == "" {
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	price, err := decimal.NewFromString(req.PricePerHour)
	if err != nil || price.IsNegative() {
		return apiutil.FieldError{Field: "price_per_hour", Reason: "must be a non-negative decimal"}
	}
	if req.DepositPercent < 0 || req.DepositPercent > 100 {
		return apiutil.FieldError{Field: "deposit_percent", Reason: "must be between 0 and 100"}
	}
	if req.SlotMinutes < 0 || req.SlotMinutes%15 != 0 {
		return apiutil.FieldError{Field: "slot_minutes", Reason: "must be a multiple of 15"}
	}
	return nil
}

func complexFromRow(row db.Complex) complexResponse {
	return complexResponse{
		ID:       row.ID,
		Name:     row.Name,
		Address:  row.Address,
		Approved: row.Approved,
	}
}

func courtFromRow(row db.Court) courtResponse {
	return courtResponse{
		ID:             row.ID,
		ComplexID:      row.ComplexID,
		Name:           row.Name,
		Surface:        row.Surface,
		PricePerHour:   row.PricePerHour,
		DepositPercent: row.DepositPercent,
		SlotMinutes:    row.SlotMinutes,
	}
}
