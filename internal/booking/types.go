// Package booking contains the slot-availability engine and the reservation
// gateway. The engine is pure interval arithmetic over minute-of-day values;
// the gateway runs the read-check-write protocol against an injected Storage.
package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/timeutil"
)

// Interval is a half-open [Start, End) range in minutes since midnight.
// A free slot is an Interval that lies inside an operating window and
// overlaps no active reservation.
type Interval struct {
	Start int
	End   int
}

// Validate reports a contract violation for malformed ranges.
func (iv Interval) Validate() error {
	if iv.Start >= iv.End {
		return &Error{
			Kind:    KindInvalidRange,
			Message: "start time must be before end time",
		}
	}
	if iv.Start < 0 || iv.End > timeutil.MinutesPerDay {
		return &Error{
			Kind:    KindInvalidRange,
			Message: "time range must fall within a single day",
		}
	}
	return nil
}

// Duration returns the interval length in minutes.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return timeutil.FormatMinuteOfDay(iv.Start) + "-" + timeutil.FormatMinuteOfDay(iv.End)
}

// OperatingWindow is a recurring weekly range during which a court is
// bookable. A court may have several windows per weekday (split
// morning/evening schedules).
type OperatingWindow struct {
	ID          int64
	CourtID     int64
	Day         timeutil.Weekday
	StartMinute int
	EndMinute   int
	Available   bool
}

// Interval returns the window's time range.
func (w OperatingWindow) Interval() Interval {
	return Interval{Start: w.StartMinute, End: w.EndMinute}
}

// Status is the reservation lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusPaid      Status = "paid"
)

// Active reports whether the reservation blocks its time range. Cancelled
// reservations never participate in overlap checks.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusPaid:
		return true
	}
	return false
}

// CanTransitionTo enforces the reservation state machine:
// pending -> {confirmed, cancelled, paid}; confirmed -> {cancelled, paid};
// paid -> {cancelled}; cancelled is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusPaid
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusPaid
	case StatusPaid:
		return next == StatusCancelled
	}
	return false
}

// Reservation is one booking of a court for an exact half-open range on a
// single calendar date.
type Reservation struct {
	ID            int64
	CourtID       int64
	Date          time.Time
	StartMinute   int
	EndMinute     int
	Status        Status
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Price         decimal.Decimal
	DepositAmount decimal.Decimal
	DepositPaid   bool
	CreatedAt     time.Time
}

// Interval returns the reserved time range.
func (r Reservation) Interval() Interval {
	return Interval{Start: r.StartMinute, End: r.EndMinute}
}

// Metadata carries the customer- and pricing-facing fields of a booking
// request. The gateway stores it verbatim; pricing is computed by the caller
// from the court's rate before the request is made.
type Metadata struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Price         decimal.Decimal
	DepositAmount decimal.Decimal
}

// NewReservation is the row handed to Storage.InsertReservation. Status is
// always pending at creation.
type NewReservation struct {
	CourtID       int64
	Date          time.Time
	StartMinute   int
	EndMinute     int
	Status        Status
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Price         decimal.Decimal
	DepositAmount decimal.Decimal
}

// ReservationPatch is a partial update applied by Storage.UpdateReservation.
// Nil fields are left unchanged.
type ReservationPatch struct {
	Date        *time.Time
	StartMinute *int
	EndMinute   *int
	Status      *Status
	DepositPaid *bool
}
