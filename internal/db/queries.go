// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same query layer
// works inside and outside transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Complex struct {
	ID        int64
	Name      string
	Address   string
	Approved  bool
	CreatedAt string
}

type Court struct {
	ID             int64
	ComplexID      int64
	Name           string
	Surface        string
	PricePerHour   string
	DepositPercent int64
	SlotMinutes    int64
	CreatedAt      string
}

type OperatingWindow struct {
	ID          int64
	CourtID     int64
	DayOfWeek   int64
	StartTime   string
	EndTime     string
	IsAvailable bool
}

type Reservation struct {
	ID              int64
	CourtID         int64
	ReservationDate string
	StartTime       string
	EndTime         string
	Status          string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Price           string
	DepositAmount   string
	DepositPaid     bool
	CreatedAt       string
}

const activeStatuses = `('pending', 'confirmed', 'paid')`

type CreateComplexParams struct {
	Name    string
	Address string
}

func (q *Queries) CreateComplex(ctx context.Context, arg CreateComplexParams) (Complex, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO complexes (name, address)
		VALUES (?, ?)
		RETURNING id, name, address, approved, created_at`,
		arg.Name, arg.Address,
	)
	var c Complex
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Approved, &c.CreatedAt)
	return c, err
}

func (q *Queries) ApproveComplex(ctx context.Context, id int64) (Complex, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE complexes SET approved = 1
		WHERE id = ?
		RETURNING id, name, address, approved, created_at`,
		id,
	)
	var c Complex
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Approved, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetComplexByID(ctx context.Context, id int64) (Complex, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, address, approved, created_at
		FROM complexes WHERE id = ?`,
		id,
	)
	var c Complex
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Approved, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListComplexes(ctx context.Context) ([]Complex, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, address, approved, created_at
		FROM complexes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complexes []Complex
	for rows.Next() {
		var c Complex
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Approved, &c.CreatedAt); err != nil {
			return nil, err
		}
		complexes = append(complexes, c)
	}
	return complexes, rows.Err()
}

type CreateCourtParams struct {
	ComplexID      int64
	Name           string
	Surface        string
	PricePerHour   string
	DepositPercent int64
	SlotMinutes    int64
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO courts (complex_id, name, surface, price_per_hour, deposit_percent, slot_minutes)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, complex_id, name, surface, price_per_hour, deposit_percent, slot_minutes, created_at`,
		arg.ComplexID, arg.Name, arg.Surface, arg.PricePerHour, arg.DepositPercent, arg.SlotMinutes,
	)
	var c Court
	err := row.Scan(&c.ID, &c.ComplexID, &c.Name, &c.Surface, &c.PricePerHour, &c.DepositPercent, &c.SlotMinutes, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, complex_id, name, surface, price_per_hour, deposit_percent, slot_minutes, created_at
		FROM courts WHERE id = ?`,
		id,
	)
	var c Court
	err := row.Scan(&c.ID, &c.ComplexID, &c.Name, &c.Surface, &c.PricePerHour, &c.DepositPercent, &c.SlotMinutes, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCourtsByComplex(ctx context.Context, complexID int64) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, complex_id, name, surface, price_per_hour, deposit_percent, slot_minutes, created_at
		FROM courts WHERE complex_id = ? ORDER BY id`,
		complexID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.ComplexID, &c.Name, &c.Surface, &c.PricePerHour, &c.DepositPercent, &c.SlotMinutes, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

type ListOperatingWindowsParams struct {
	CourtID   int64
	DayOfWeek int64
}

func (q *Queries) ListOperatingWindows(ctx context.Context, arg ListOperatingWindowsParams) ([]OperatingWindow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, court_id, day_of_week, start_time, end_time, is_available
		FROM operating_windows
		WHERE court_id = ? AND day_of_week = ?
		ORDER BY start_time`,
		arg.CourtID, arg.DayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOperatingWindows(rows)
}

func (q *Queries) ListAllOperatingWindows(ctx context.Context, courtID int64) ([]OperatingWindow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, court_id, day_of_week, start_time, end_time, is_available
		FROM operating_windows
		WHERE court_id = ?
		ORDER BY day_of_week, start_time`,
		courtID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOperatingWindows(rows)
}

func scanOperatingWindows(rows *sql.Rows) ([]OperatingWindow, error) {
	var windows []OperatingWindow
	for rows.Next() {
		var w OperatingWindow
		if err := rows.Scan(&w.ID, &w.CourtID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.IsAvailable); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (q *Queries) DeleteOperatingWindows(ctx context.Context, courtID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM operating_windows WHERE court_id = ?`, courtID)
	return err
}

type InsertOperatingWindowParams struct {
	CourtID     int64
	DayOfWeek   int64
	StartTime   string
	EndTime     string
	IsAvailable bool
}

func (q *Queries) InsertOperatingWindow(ctx context.Context, arg InsertOperatingWindowParams) (OperatingWindow, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO operating_windows (court_id, day_of_week, start_time, end_time, is_available)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, court_id, day_of_week, start_time, end_time, is_available`,
		arg.CourtID, arg.DayOfWeek, arg.StartTime, arg.EndTime, arg.IsAvailable,
	)
	var w OperatingWindow
	err := row.Scan(&w.ID, &w.CourtID, &w.DayOfWeek, &w.StartTime, &w.EndTime, &w.IsAvailable)
	return w, err
}

const reservationColumns = `id, court_id, reservation_date, start_time, end_time, status,
	customer_name, customer_phone, customer_email, price, deposit_amount, deposit_paid, created_at`

type CreateReservationParams struct {
	CourtID         int64
	ReservationDate string
	StartTime       string
	EndTime         string
	Status          string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Price           string
	DepositAmount   string
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservations (court_id, reservation_date, start_time, end_time, status,
			customer_name, customer_phone, customer_email, price, deposit_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+reservationColumns,
		arg.CourtID, arg.ReservationDate, arg.StartTime, arg.EndTime, arg.Status,
		arg.CustomerName, arg.CustomerPhone, arg.CustomerEmail, arg.Price, arg.DepositAmount,
	)
	return scanReservation(row)
}

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations WHERE id = ?`,
		id,
	)
	return scanReservation(row)
}

type ListActiveReservationsParams struct {
	CourtID         int64
	ReservationDate string
}

func (q *Queries) ListActiveReservations(ctx context.Context, arg ListActiveReservationsParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE court_id = ? AND reservation_date = ? AND status IN `+activeStatuses+`
		ORDER BY start_time`,
		arg.CourtID, arg.ReservationDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

type ListActiveReservationsInRangeParams struct {
	CourtID         int64
	ReservationDate string
	StartTime       string
	EndTime         string
}

// ListActiveReservationsInRange returns active rows overlapping
// [StartTime, EndTime); times are zero-padded HH:MM so string comparison
// matches time comparison.
func (q *Queries) ListActiveReservationsInRange(ctx context.Context, arg ListActiveReservationsInRangeParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE court_id = ? AND reservation_date = ? AND status IN `+activeStatuses+`
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time`,
		arg.CourtID, arg.ReservationDate, arg.EndTime, arg.StartTime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

type ListReservationsByDateParams struct {
	CourtID         int64
	ReservationDate string
}

// ListReservationsByDate returns all rows for the calendar view, cancelled
// included.
func (q *Queries) ListReservationsByDate(ctx context.Context, arg ListReservationsByDateParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE court_id = ? AND reservation_date = ?
		ORDER BY start_time`,
		arg.CourtID, arg.ReservationDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

type UpdateReservationParams struct {
	ID              int64
	ReservationDate sql.NullString
	StartTime       sql.NullString
	EndTime         sql.NullString
	Status          sql.NullString
	DepositPaid     sql.NullBool
}

func (q *Queries) UpdateReservation(ctx context.Context, arg UpdateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE reservations SET
			reservation_date = COALESCE(?, reservation_date),
			start_time = COALESCE(?, start_time),
			end_time = COALESCE(?, end_time),
			status = COALESCE(?, status),
			deposit_paid = COALESCE(?, deposit_paid)
		WHERE id = ?
		RETURNING `+reservationColumns,
		arg.ReservationDate, arg.StartTime, arg.EndTime, arg.Status, arg.DepositPaid, arg.ID,
	)
	return scanReservation(row)
}

// ListStalePendingReservations returns pending rows created before the
// cutoff, expressed in the same `datetime('now')` layout the rows carry.
func (q *Queries) ListStalePendingReservations(ctx context.Context, cutoff string) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'pending' AND created_at < ?
		ORDER BY created_at`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservation(row *sql.Row) (Reservation, error) {
	var r Reservation
	err := row.Scan(&r.ID, &r.CourtID, &r.ReservationDate, &r.StartTime, &r.EndTime, &r.Status,
		&r.CustomerName, &r.CustomerPhone, &r.CustomerEmail, &r.Price, &r.DepositAmount, &r.DepositPaid, &r.CreatedAt)
	return r, err
}

func scanReservations(rows *sql.Rows) ([]Reservation, error) {
	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.CourtID, &r.ReservationDate, &r.StartTime, &r.EndTime, &r.Status,
			&r.CustomerName, &r.CustomerPhone, &r.CustomerEmail, &r.Price, &r.DepositAmount, &r.DepositPaid, &r.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
