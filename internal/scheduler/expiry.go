package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/config"
	"github.com/cancha-app/cancha/internal/email"
	"github.com/cancha-app/cancha/internal/store"
)

const pendingSweepTimeout = 30 * time.Second

// ExpirePendingHolds cancels pending reservations older than the hold TTL,
// releasing their slots, and notifies the affected customers. Returns the
// number of holds released.
func ExpirePendingHolds(ctx context.Context, st *store.Store, client email.EmailSender, ttl time.Duration, now time.Time) (int, error) {
	if st == nil {
		return 0, fmt.Errorf("pending hold expiry requires a store")
	}

	cutoff := now.Add(-ttl)
	expired, err := st.ExpireStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire stale pending: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	logger := log.Ctx(ctx)
	for _, r := range expired {
		logger.Info().
			Int64("reservation_id", r.ID).
			Int64("court_id", r.CourtID).
			Str("date", r.Date.Format("2006-01-02")).
			Msg("Released expired pending hold")
		notifyHoldExpired(ctx, st, client, r)
	}
	return len(expired), nil
}

func notifyHoldExpired(ctx context.Context, st *store.Store, client email.EmailSender, r booking.Reservation) {
	if client == nil || r.CustomerEmail == "" {
		return
	}

	logger := log.Ctx(ctx)
	complexName, courtName := "", ""
	if court, err := st.DB().Queries.GetCourtByID(ctx, r.CourtID); err == nil {
		courtName = court.Name
		if cmplx, err := st.DB().Queries.GetComplexByID(ctx, court.ComplexID); err == nil {
			complexName = cmplx.Name
		}
	} else {
		logger.Warn().Err(err).Int64("court_id", r.CourtID).Msg("Could not load court for expiry email")
	}

	msg := email.BuildPendingExpiry(email.DetailsFromReservation(r, complexName, courtName))
	email.SendPendingExpiry(ctx, client, r, msg, logger)
}

// RegisterPendingHoldSweep schedules the recurring expiry job from the
// booking configuration.
func RegisterPendingHoldSweep(svc *Service, st *store.Store, client email.EmailSender, cfg config.BookingConfig) (gocron.Job, error) {
	ttl := time.Duration(cfg.PendingHoldTTLMinutes) * time.Minute
	return svc.AddJob("pending-hold-expiry", cfg.ExpirySweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pendingSweepTimeout)
		defer cancel()
		if _, err := ExpirePendingHolds(ctx, st, client, ttl, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("Pending hold expiry sweep failed")
		}
	})
}
