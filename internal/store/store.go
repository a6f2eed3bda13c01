// Package store adapts the SQLite query layer to the booking.Storage
// contract, translating between wire representations (zero-padded HH:MM
// strings, ISO dates, decimal text) and the engine's minute-of-day types.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/db"
	"github.com/cancha-app/cancha/internal/timeutil"
)

// Store implements booking.Storage on top of the SQLite database.
type Store struct {
	db *db.DB
}

// New wraps the database handle. The store holds no state of its own.
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// DB exposes the underlying handle for callers that need queries outside the
// booking.Storage contract (court registry, calendar views).
func (s *Store) DB() *db.DB {
	return s.db
}

func (s *Store) FetchOperatingWindows(ctx context.Context, courtID int64, day timeutil.Weekday) ([]booking.OperatingWindow, error) {
	rows, err := s.db.Queries.ListOperatingWindows(ctx, db.ListOperatingWindowsParams{
		CourtID:   courtID,
		DayOfWeek: int64(day),
	})
	if err != nil {
		return nil, fmt.Errorf("list operating windows: %w", err)
	}

	windows := make([]booking.OperatingWindow, 0, len(rows))
	for _, row := range rows {
		window, err := windowFromRow(row)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func (s *Store) FetchActiveReservations(ctx context.Context, courtID int64, date time.Time) ([]booking.Reservation, error) {
	rows, err := s.db.Queries.ListActiveReservations(ctx, db.ListActiveReservationsParams{
		CourtID:         courtID,
		ReservationDate: timeutil.FormatDate(date),
	})
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	return reservationsFromRows(rows)
}

func (s *Store) FetchActiveReservationsInRange(ctx context.Context, courtID int64, date time.Time, startMinute, endMinute int) ([]booking.Reservation, error) {
	rows, err := s.db.Queries.ListActiveReservationsInRange(ctx, db.ListActiveReservationsInRangeParams{
		CourtID:         courtID,
		ReservationDate: timeutil.FormatDate(date),
		StartTime:       timeutil.FormatMinuteOfDay(startMinute),
		EndTime:         timeutil.FormatMinuteOfDay(endMinute),
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations in range: %w", err)
	}
	return reservationsFromRows(rows)
}

func (s *Store) InsertReservation(ctx context.Context, row booking.NewReservation) (booking.Reservation, error) {
	created, err := s.db.Queries.CreateReservation(ctx, db.CreateReservationParams{
		CourtID:         row.CourtID,
		ReservationDate: timeutil.FormatDate(row.Date),
		StartTime:       timeutil.FormatMinuteOfDay(row.StartMinute),
		EndTime:         timeutil.FormatMinuteOfDay(row.EndMinute),
		Status:          string(row.Status),
		CustomerName:    row.CustomerName,
		CustomerPhone:   row.CustomerPhone,
		CustomerEmail:   row.CustomerEmail,
		Price:           row.Price.String(),
		DepositAmount:   row.DepositAmount.String(),
	})
	if err != nil {
		if isOverlapViolation(err) {
			return booking.Reservation{}, booking.ErrConflict
		}
		return booking.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return reservationFromRow(created)
}

func (s *Store) UpdateReservation(ctx context.Context, id int64, patch booking.ReservationPatch) (booking.Reservation, error) {
	params := db.UpdateReservationParams{ID: id}
	if patch.Date != nil {
		params.ReservationDate = sql.NullString{String: timeutil.FormatDate(*patch.Date), Valid: true}
	}
	if patch.StartMinute != nil {
		params.StartTime = sql.NullString{String: timeutil.FormatMinuteOfDay(*patch.StartMinute), Valid: true}
	}
	if patch.EndMinute != nil {
		params.EndTime = sql.NullString{String: timeutil.FormatMinuteOfDay(*patch.EndMinute), Valid: true}
	}
	if patch.Status != nil {
		params.Status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	if patch.DepositPaid != nil {
		params.DepositPaid = sql.NullBool{Bool: *patch.DepositPaid, Valid: true}
	}

	updated, err := s.db.Queries.UpdateReservation(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Reservation{}, booking.ErrNotFound
		}
		if isOverlapViolation(err) {
			return booking.Reservation{}, booking.ErrConflict
		}
		return booking.Reservation{}, fmt.Errorf("update reservation: %w", err)
	}
	return reservationFromRow(updated)
}

func (s *Store) GetReservation(ctx context.Context, id int64) (booking.Reservation, error) {
	row, err := s.db.Queries.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Reservation{}, booking.ErrNotFound
		}
		return booking.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return reservationFromRow(row)
}

// ReplaceOperatingWindows swaps a court's weekly schedule wholesale inside
// one transaction, the only mutation path the owner has for windows.
func (s *Store) ReplaceOperatingWindows(ctx context.Context, courtID int64, windows []booking.OperatingWindow) error {
	for _, window := range windows {
		if err := window.Interval().Validate(); err != nil {
			return err
		}
		if !window.Day.Valid() {
			return fmt.Errorf("day_of_week %d is out of range", window.Day)
		}
	}

	return s.db.RunInTx(ctx, func(txdb *db.DB) error {
		if err := txdb.Queries.DeleteOperatingWindows(ctx, courtID); err != nil {
			return fmt.Errorf("delete operating windows: %w", err)
		}
		for _, window := range windows {
			_, err := txdb.Queries.InsertOperatingWindow(ctx, db.InsertOperatingWindowParams{
				CourtID:     courtID,
				DayOfWeek:   int64(window.Day),
				StartTime:   timeutil.FormatMinuteOfDay(window.StartMinute),
				EndTime:     timeutil.FormatMinuteOfDay(window.EndMinute),
				IsAvailable: window.Available,
			})
			if err != nil {
				return fmt.Errorf("insert operating window: %w", err)
			}
		}
		return nil
	})
}

// WeeklyOperatingWindows returns the court's full configured schedule.
func (s *Store) WeeklyOperatingWindows(ctx context.Context, courtID int64) ([]booking.OperatingWindow, error) {
	rows, err := s.db.Queries.ListAllOperatingWindows(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("list operating windows: %w", err)
	}
	windows := make([]booking.OperatingWindow, 0, len(rows))
	for _, row := range rows {
		window, err := windowFromRow(row)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// ExpireStalePending cancels pending reservations created before the cutoff
// and returns the rows it cancelled. Rows are cancelled one at a time so a
// single bad row cannot wedge the sweep.
func (s *Store) ExpireStalePending(ctx context.Context, cutoff time.Time) ([]booking.Reservation, error) {
	stale, err := s.db.Queries.ListStalePendingReservations(ctx, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("list stale pending reservations: %w", err)
	}

	cancelled := make([]booking.Reservation, 0, len(stale))
	status := sql.NullString{String: string(booking.StatusCancelled), Valid: true}
	for _, row := range stale {
		updated, err := s.db.Queries.UpdateReservation(ctx, db.UpdateReservationParams{
			ID:     row.ID,
			Status: status,
		})
		if err != nil {
			return cancelled, fmt.Errorf("cancel stale reservation %d: %w", row.ID, err)
		}
		reservation, err := reservationFromRow(updated)
		if err != nil {
			return cancelled, err
		}
		cancelled = append(cancelled, reservation)
	}
	return cancelled, nil
}

// ReservationsByDate returns all rows for a court's calendar view, cancelled
// included.
func (s *Store) ReservationsByDate(ctx context.Context, courtID int64, date time.Time) ([]booking.Reservation, error) {
	rows, err := s.db.Queries.ListReservationsByDate(ctx, db.ListReservationsByDateParams{
		CourtID:         courtID,
		ReservationDate: timeutil.FormatDate(date),
	})
	if err != nil {
		return nil, fmt.Errorf("list reservations by date: %w", err)
	}
	return reservationsFromRows(rows)
}

// isOverlapViolation recognizes the trigger-based overlap guard. The trigger
// raises a constraint abort carrying the 'reservation overlap' message.
func isOverlapViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "reservation overlap")
}

func windowFromRow(row db.OperatingWindow) (booking.OperatingWindow, error) {
	start, err := timeutil.ParseMinuteOfDay(row.StartTime)
	if err != nil {
		return booking.OperatingWindow{}, fmt.Errorf("operating window %d: %w", row.ID, err)
	}
	end, err := timeutil.ParseMinuteOfDay(row.EndTime)
	if err != nil {
		return booking.OperatingWindow{}, fmt.Errorf("operating window %d: %w", row.ID, err)
	}
	return booking.OperatingWindow{
		ID:          row.ID,
		CourtID:     row.CourtID,
		Day:         timeutil.Weekday(row.DayOfWeek),
		StartMinute: start,
		EndMinute:   end,
		Available:   row.IsAvailable,
	}, nil
}

func reservationFromRow(row db.Reservation) (booking.Reservation, error) {
	start, err := timeutil.ParseMinuteOfDay(row.StartTime)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %d: %w", row.ID, err)
	}
	end, err := timeutil.ParseMinuteOfDay(row.EndTime)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %d: %w", row.ID, err)
	}
	date, err := timeutil.ParseDate(row.ReservationDate)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %d: %w", row.ID, err)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %d price: %w", row.ID, err)
	}
	deposit, err := decimal.NewFromString(row.DepositAmount)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("reservation %d deposit: %w", row.ID, err)
	}

	var createdAt time.Time
	if row.CreatedAt != "" {
		createdAt, _ = time.Parse("2006-01-02 15:04:05", row.CreatedAt)
	}

	return booking.Reservation{
		ID:            row.ID,
		CourtID:       row.CourtID,
		Date:          date,
		StartMinute:   start,
		EndMinute:     end,
		Status:        booking.Status(row.Status),
		CustomerName:  row.CustomerName,
		CustomerPhone: row.CustomerPhone,
		CustomerEmail: row.CustomerEmail,
		Price:         price,
		DepositAmount: deposit,
		DepositPaid:   row.DepositPaid,
		CreatedAt:     createdAt,
	}, nil
}

func reservationsFromRows(rows []db.Reservation) ([]booking.Reservation, error) {
	reservations := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := reservationFromRow(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}
