// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cancha-app/cancha/internal/api"
	"github.com/cancha-app/cancha/internal/api/availability"
	"github.com/cancha-app/cancha/internal/api/courts"
	"github.com/cancha-app/cancha/internal/api/operatingwindows"
	"github.com/cancha-app/cancha/internal/api/reservations"
	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/config"
	"github.com/cancha-app/cancha/internal/db"
	"github.com/cancha-app/cancha/internal/email"
	"github.com/cancha-app/cancha/internal/ratelimit"
	"github.com/cancha-app/cancha/internal/store"
)

func newServer(cfg *config.Config, database *db.DB, st *store.Store, gateway *booking.Gateway, mailer email.EmailSender, limiter *ratelimit.Limiter) *http.Server {
	courts.InitHandlers(database.Queries)
	availability.InitHandlers(gateway, database.Queries)
	operatingwindows.InitHandlers(st)
	reservations.InitHandlers(gateway, st, mailer, limiter)

	router := http.NewServeMux()
	registerRoutes(router)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Complex and court registry
	mux.HandleFunc("POST /api/v1/complexes", courts.HandleCreateComplex)
	mux.HandleFunc("GET /api/v1/complexes", courts.HandleListComplexes)
	mux.HandleFunc("POST /api/v1/complexes/{id}/approve", courts.HandleApproveComplex)
	mux.HandleFunc("POST /api/v1/courts", courts.HandleCreateCourt)
	mux.HandleFunc("GET /api/v1/courts", courts.HandleListCourts)
	mux.HandleFunc("GET /api/v1/courts/{id}", courts.HandleGetCourt)

	// Operating windows
	mux.HandleFunc("GET /api/v1/courts/{id}/operating-windows", operatingwindows.HandleListWindows)
	mux.HandleFunc("PUT /api/v1/courts/{id}/operating-windows", operatingwindows.HandleReplaceWindows)

	// Availability
	mux.HandleFunc("GET /api/v1/availability", availability.HandleAvailability)

	// Reservations
	mux.HandleFunc("POST /api/v1/reservations", reservations.HandleCreateReservation)
	mux.HandleFunc("GET /api/v1/reservations", reservations.HandleListReservations)
	mux.HandleFunc("GET /api/v1/reservations/{id}", reservations.HandleGetReservation)
	mux.HandleFunc("PATCH /api/v1/reservations/{id}", reservations.HandleMoveReservation)
	mux.HandleFunc("POST /api/v1/reservations/{id}/confirm", reservations.HandleConfirmReservation)
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", reservations.HandleCancelReservation)
	mux.HandleFunc("POST /api/v1/reservations/{id}/pay", reservations.HandlePayReservation)
}
