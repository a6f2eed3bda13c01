package email

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/timeutil"
)

// Message is a rendered plain-text email.
type Message struct {
	Subject string
	Body    string
}

// BookingDetails carries the customer-facing fields of a reservation used to
// render notification emails.
type BookingDetails struct {
	ComplexName        string
	CourtName          string
	Date               string
	TimeRange          string
	Price              decimal.Decimal
	DepositAmount      decimal.Decimal
	CancellationPolicy string
}

// DetailsFromReservation fills the date and time range from the reservation;
// court and complex names come from the caller.
func DetailsFromReservation(r booking.Reservation, complexName, courtName string) BookingDetails {
	return BookingDetails{
		ComplexName: complexName,
		CourtName:   courtName,
		Date:        r.Date.Format("Monday, Jan 2, 2006"),
		TimeRange: fmt.Sprintf("%s - %s",
			timeutil.FormatMinuteOfDay(r.StartMinute),
			timeutil.FormatMinuteOfDay(r.EndMinute)),
		Price:         r.Price,
		DepositAmount: r.DepositAmount,
	}
}

// BuildBookingConfirmation renders the email sent when a reservation is
// confirmed.
func BuildBookingConfirmation(details BookingDetails) Message {
	complexName := strings.TrimSpace(details.ComplexName)
	if complexName == "" {
		complexName = "your complex"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "TBD"
	}
	policy := strings.TrimSpace(details.CancellationPolicy)
	if policy == "" {
		policy = "Contact the complex for cancellation policy details."
	}

	subject := fmt.Sprintf("Court Reservation Confirmed - %s", complexName)

	lines := []string{
		"Your court booking is confirmed.",
		"",
		fmt.Sprintf("Complex: %s", complexName),
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
		fmt.Sprintf("Price: $%s", details.Price.StringFixed(2)),
	}
	if details.DepositAmount.IsPositive() {
		lines = append(lines, fmt.Sprintf("Deposit due: $%s", details.DepositAmount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Cancellation policy: %s", policy))

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildBookingCancellation renders the email sent when a reservation is
// cancelled. Reason is optional.
func BuildBookingCancellation(details BookingDetails, reason string) Message {
	complexName := strings.TrimSpace(details.ComplexName)
	if complexName == "" {
		complexName = "your complex"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "TBD"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	subject := fmt.Sprintf("Court Reservation Cancelled - %s", complexName)

	lines := []string{
		"Your court booking has been cancelled.",
		"",
		fmt.Sprintf("Complex: %s", complexName),
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}
	if r := strings.TrimSpace(reason); r != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", r))
	}

	return Message{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildPendingExpiry renders the email sent when an unconfirmed hold lapses.
func BuildPendingExpiry(details BookingDetails) Message {
	complexName := strings.TrimSpace(details.ComplexName)
	if complexName == "" {
		complexName = "your complex"
	}

	lines := []string{
		"Your court hold expired before it was confirmed and the slot has been released.",
		"",
		fmt.Sprintf("Complex: %s", complexName),
		fmt.Sprintf("Court: %s", strings.TrimSpace(details.CourtName)),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
		"",
		"You can book the slot again if it is still free.",
	}

	return Message{
		Subject: fmt.Sprintf("Court Hold Expired - %s", complexName),
		Body:    strings.Join(lines, "\n"),
	}
}
