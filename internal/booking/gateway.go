package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cancha-app/cancha/internal/timeutil"
)

// Storage is the persistence collaborator for reservations and operating
// windows. It is injected into the Gateway so tests can substitute a double
// with no shared state.
type Storage interface {
	FetchOperatingWindows(ctx context.Context, courtID int64, day timeutil.Weekday) ([]OperatingWindow, error)
	FetchActiveReservations(ctx context.Context, courtID int64, date time.Time) ([]Reservation, error)
	// FetchActiveReservationsInRange is the narrower commit-time re-read,
	// limited to rows that could overlap [startMinute, endMinute).
	FetchActiveReservationsInRange(ctx context.Context, courtID int64, date time.Time, startMinute, endMinute int) ([]Reservation, error)
	// InsertReservation must be atomic and return ErrConflict when the
	// storage-level overlap guard rejects the row.
	InsertReservation(ctx context.Context, row NewReservation) (Reservation, error)
	UpdateReservation(ctx context.Context, id int64, patch ReservationPatch) (Reservation, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
}

// Gateway turns availability answers into durable decisions. Every write is
// preceded by a two-phase check: one full check when the request arrives and
// a narrower re-check immediately before the commit. The check narrows the
// race window between two concurrent customers; the storage-level overlap
// guard is the final arbiter and its rejection is surfaced as SlotTaken.
type Gateway struct {
	storage Storage
}

// NewGateway builds a Gateway around the given storage collaborator.
func NewGateway(storage Storage) *Gateway {
	return &Gateway{storage: storage}
}

// RequestBooking validates the requested range against operating hours and
// existing reservations, then inserts a pending reservation. It returns a
// tagged *Error for every expected failure.
func (g *Gateway) RequestBooking(ctx context.Context, courtID int64, date time.Time, startMinute, endMinute int, meta Metadata) (Reservation, error) {
	requested := Interval{Start: startMinute, End: endMinute}
	if err := requested.Validate(); err != nil {
		return Reservation{}, err
	}

	if err := g.checkAvailability(ctx, courtID, date, requested, 0, true); err != nil {
		return Reservation{}, err
	}

	// Commit-time re-check against the latest storage state, limited to the
	// requested range. Closes most of the window between the first check and
	// the insert.
	if err := g.recheckRange(ctx, courtID, date, requested, 0); err != nil {
		return Reservation{}, err
	}

	created, err := g.storage.InsertReservation(ctx, NewReservation{
		CourtID:       courtID,
		Date:          date,
		StartMinute:   requested.Start,
		EndMinute:     requested.End,
		Status:        StatusPending,
		CustomerName:  meta.CustomerName,
		CustomerPhone: meta.CustomerPhone,
		CustomerEmail: meta.CustomerEmail,
		Price:         meta.Price,
		DepositAmount: meta.DepositAmount,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			// Another writer won the race between the re-check and the
			// insert; equivalent to a re-check failure.
			return Reservation{}, slotTaken("the requested time is no longer available", err)
		}
		// Writes are never retried: a retry after an ambiguous failure risks
		// a duplicate insert.
		return Reservation{}, storageUnavailable("could not save the reservation", err)
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", created.ID).
		Int64("court_id", courtID).
		Str("date", timeutil.FormatDate(date)).
		Str("range", requested.String()).
		Msg("Reservation created")
	return created, nil
}

// MoveOrResize re-runs the full availability protocol for the new range,
// excluding the moved reservation from its own busy set.
func (g *Gateway) MoveOrResize(ctx context.Context, reservationID int64, newDate time.Time, newStart, newEnd int) (Reservation, error) {
	requested := Interval{Start: newStart, End: newEnd}
	if err := requested.Validate(); err != nil {
		return Reservation{}, err
	}

	current, err := g.getReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, err
	}
	if !current.Status.Active() {
		return Reservation{}, invalidRange("a cancelled reservation cannot be moved")
	}

	if err := g.checkAvailability(ctx, current.CourtID, newDate, requested, reservationID, true); err != nil {
		return Reservation{}, err
	}
	if err := g.recheckRange(ctx, current.CourtID, newDate, requested, reservationID); err != nil {
		return Reservation{}, err
	}

	updated, err := g.storage.UpdateReservation(ctx, reservationID, ReservationPatch{
		Date:        &newDate,
		StartMinute: &requested.Start,
		EndMinute:   &requested.End,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return Reservation{}, slotTaken("the requested time is no longer available", err)
		}
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, err
		}
		return Reservation{}, storageUnavailable("could not move the reservation", err)
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", reservationID).
		Str("date", timeutil.FormatDate(newDate)).
		Str("range", requested.String()).
		Msg("Reservation moved")
	return updated, nil
}

// Cancel sets the reservation to cancelled. No availability check is needed;
// the slot is free for subsequent requests as soon as the write lands, since
// cancelled rows are excluded from every busy set.
func (g *Gateway) Cancel(ctx context.Context, reservationID int64) (Reservation, error) {
	return g.Transition(ctx, reservationID, StatusCancelled)
}

// Transition applies a status write, enforcing the reservation state
// machine. Only creation and move/resize re-run availability checks.
func (g *Gateway) Transition(ctx context.Context, reservationID int64, next Status) (Reservation, error) {
	if !next.Valid() {
		return Reservation{}, invalidRange("unknown reservation status")
	}

	current, err := g.getReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		return Reservation{}, &Error{
			Kind:    KindInvalidRange,
			Message: "reservation cannot change from " + string(current.Status) + " to " + string(next),
		}
	}

	updated, err := g.storage.UpdateReservation(ctx, reservationID, ReservationPatch{Status: &next})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, err
		}
		return Reservation{}, storageUnavailable("could not update the reservation", err)
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", reservationID).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Msg("Reservation status changed")
	return updated, nil
}

// FreeSlots computes the bookable slots for a court on a date: base slots
// from the weekday's windows minus active reservations.
func (g *Gateway) FreeSlots(ctx context.Context, courtID int64, date time.Time, stepMinutes int) ([]Interval, error) {
	windows, err := g.fetchWindows(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	reservations, err := g.fetchActive(ctx, courtID, date)
	if err != nil {
		return nil, err
	}

	base := BuildBaseSlots(windows, stepMinutes)
	return ComputeFreeSlots(base, BusyIntervals(reservations, 0)), nil
}

// checkAvailability is phase one: operating hours first, then overlap.
func (g *Gateway) checkAvailability(ctx context.Context, courtID int64, date time.Time, requested Interval, excludeID int64, checkHours bool) error {
	if checkHours {
		windows, err := g.fetchWindows(ctx, courtID, date)
		if err != nil {
			return err
		}
		within, err := IsWithinOperatingHours(requested, windows)
		if err != nil {
			return err
		}
		if !within {
			return outsideHours("the court is not open for the requested time")
		}
	}

	reservations, err := g.fetchActive(ctx, courtID, date)
	if err != nil {
		return err
	}
	free, err := IsRangeFree(requested, BusyIntervals(reservations, excludeID))
	if err != nil {
		return err
	}
	if !free {
		return slotTaken("the requested time is already reserved", nil)
	}
	return nil
}

// recheckRange is phase two: a narrower fetch limited to the requested range
// immediately before the write.
func (g *Gateway) recheckRange(ctx context.Context, courtID int64, date time.Time, requested Interval, excludeID int64) error {
	reservations, err := g.storage.FetchActiveReservationsInRange(ctx, courtID, date, requested.Start, requested.End)
	if err != nil {
		reservations, err = g.storage.FetchActiveReservationsInRange(ctx, courtID, date, requested.Start, requested.End)
	}
	if err != nil {
		return storageUnavailable("could not verify availability", err)
	}

	free, err := IsRangeFree(requested, BusyIntervals(reservations, excludeID))
	if err != nil {
		return err
	}
	if !free {
		return slotTaken("the requested time is already reserved", nil)
	}
	return nil
}

// Reads are retried once on failure; transient storage errors on the read
// path are cheap to retry and carry no duplicate-write risk.

func (g *Gateway) fetchWindows(ctx context.Context, courtID int64, date time.Time) ([]OperatingWindow, error) {
	day := timeutil.WeekdayOf(date)
	windows, err := g.storage.FetchOperatingWindows(ctx, courtID, day)
	if err != nil {
		windows, err = g.storage.FetchOperatingWindows(ctx, courtID, day)
	}
	if err != nil {
		return nil, storageUnavailable("could not load operating hours", err)
	}
	return windows, nil
}

func (g *Gateway) fetchActive(ctx context.Context, courtID int64, date time.Time) ([]Reservation, error) {
	reservations, err := g.storage.FetchActiveReservations(ctx, courtID, date)
	if err != nil {
		reservations, err = g.storage.FetchActiveReservations(ctx, courtID, date)
	}
	if err != nil {
		return nil, storageUnavailable("could not load reservations", err)
	}
	return reservations, nil
}

func (g *Gateway) getReservation(ctx context.Context, reservationID int64) (Reservation, error) {
	reservation, err := g.storage.GetReservation(ctx, reservationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		reservation, err = g.storage.GetReservation(ctx, reservationID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, err
		}
		return Reservation{}, storageUnavailable("could not load the reservation", err)
	}
	return reservation, nil
}
