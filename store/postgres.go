package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"railway-booking/models"
)

const (
	trainColumns = `id, train_name, source, destination,
		to_char(departure_time, 'HH24:MI:SS') AS departure_time,
		to_char(arrival_time, 'HH24:MI:SS') AS arrival_time,
		total_seats, available_seats, fare`

	reservationColumns = `id, user_id, train_id, seats_booked, fare, status, booking_date`
)

// Postgres error codes that mean the row lock could not be taken in time
const (
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
	codeCheckViolation   = "23514"
)

// Postgres stores the catalog and reservations in PostgreSQL. A train scope
// is a database transaction holding the train row via SELECT ... FOR UPDATE.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) BeginTrain(ctx context.Context, trainID int64) (TrainTx, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, lockError(ctx, trainID, fmt.Errorf("failed to start transaction: %w", err))
	}

	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		// SET does not take bind parameters; ms is an integer we formatted ourselves
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)); err != nil {
			_ = tx.Rollback()
			return nil, lockError(ctx, trainID, fmt.Errorf("failed to set lock timeout: %w", err))
		}
	}

	var train models.Train
	err = tx.GetContext(ctx, &train, `SELECT `+trainColumns+` FROM trains WHERE id = $1 FOR UPDATE`, trainID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("train %d: %w", trainID, models.ErrNotFound)
		}
		return nil, lockError(ctx, trainID, fmt.Errorf("failed to lock train: %w", err))
	}

	return &postgresTx{ctx: ctx, tx: tx, train: train}, nil
}

func (p *Postgres) GetTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	var train models.Train
	err := p.db.GetContext(ctx, &train, `SELECT `+trainColumns+` FROM trains WHERE id = $1`, trainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("train %d: %w", trainID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying train: %w", err)
	}
	return &train, nil
}

func (p *Postgres) ListTrains(ctx context.Context, filter *models.TrainFilter) ([]models.Train, error) {
	query := `SELECT ` + trainColumns + ` FROM trains`
	var args []interface{}

	if filter != nil {
		query += ` WHERE available_seats > 0 AND LOWER(source) LIKE $1 AND LOWER(destination) LIKE $2`
		args = append(args, likePattern(filter.Origin), likePattern(filter.Destination))
	}
	query += ` ORDER BY id`

	trains := []models.Train{}
	if err := p.db.SelectContext(ctx, &trains, query, args...); err != nil {
		return nil, fmt.Errorf("error querying trains: %w", err)
	}
	return trains, nil
}

func (p *Postgres) CreateTrain(ctx context.Context, train *models.Train) error {
	if err := validateTrain(train); err != nil {
		return err
	}

	if train.ID == 0 {
		err := p.db.QueryRowContext(ctx, `
			INSERT INTO trains (train_name, source, destination, departure_time, arrival_time, total_seats, available_seats, fare)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, train.Name, train.Origin, train.Destination, train.DepartureTime, train.ArrivalTime,
			train.TotalSeats, train.AvailableSeats, train.Fare).Scan(&train.ID)
		if err != nil {
			return fmt.Errorf("failed to create train: %w", err)
		}
		return nil
	}

	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO trains (id, train_name, source, destination, departure_time, arrival_time, total_seats, available_seats, fare)
		VALUES (:id, :train_name, :source, :destination, :departure_time, :arrival_time, :total_seats, :available_seats, :fare)
	`, train)
	if err != nil {
		return fmt.Errorf("failed to create train: %w", err)
	}
	// keep the serial ahead of explicitly chosen IDs
	_, err = p.db.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('trains', 'id'), GREATEST((SELECT MAX(id) FROM trains), 1))`)
	if err != nil {
		return fmt.Errorf("failed to advance train sequence: %w", err)
	}
	return nil
}

func (p *Postgres) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	err := p.db.GetContext(ctx, &r, `SELECT `+reservationColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying reservation: %w", err)
	}
	return &r, nil
}

func (p *Postgres) ListReservations(ctx context.Context, userID string) ([]models.ReservationDetail, error) {
	query := `
		SELECT b.id, b.user_id, b.train_id, b.seats_booked, b.fare, b.status, b.booking_date,
			t.train_name, t.source, t.destination,
			to_char(t.departure_time, 'HH24:MI:SS') AS departure_time,
			to_char(t.arrival_time, 'HH24:MI:SS') AS arrival_time
		FROM bookings b
		JOIN trains t ON b.train_id = t.id`
	var args []interface{}

	if userID != "" {
		query += ` WHERE b.user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY b.booking_date DESC, b.seq DESC`

	details := []models.ReservationDetail{}
	if err := p.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	return details, nil
}

type postgresTx struct {
	ctx   context.Context
	tx    *sqlx.Tx
	train models.Train
	done  bool
}

func (t *postgresTx) Train() models.Train {
	return t.train
}

func (t *postgresTx) DecrementSeats(n int) error {
	if err := checkDecrement(t.train, n); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE trains
		SET available_seats = available_seats - $1
		WHERE id = $2 AND available_seats >= $1
	`, n, t.train.ID)
	if err := expectOneRow(res, err, "decrement seats"); err != nil {
		return err
	}

	t.train.AvailableSeats -= n
	return nil
}

func (t *postgresTx) IncrementSeats(n int) error {
	if err := checkIncrement(t.train, n); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE trains
		SET available_seats = available_seats + $1
		WHERE id = $2 AND available_seats + $1 <= total_seats
	`, n, t.train.ID)
	if err := expectOneRow(res, err, "increment seats"); err != nil {
		return err
	}

	t.train.AvailableSeats += n
	return nil
}

func (t *postgresTx) SetFare(fare decimal.Decimal) error {
	if !models.ValidAmount(fare) {
		return fmt.Errorf("fare %s: %w", fare, models.ErrInvalidInput)
	}

	res, err := t.tx.ExecContext(t.ctx, `UPDATE trains SET fare = $1 WHERE id = $2`, fare, t.train.ID)
	if err := expectOneRow(res, err, "update fare"); err != nil {
		return err
	}

	t.train.Fare = fare
	return nil
}

func (t *postgresTx) CreateReservation(r models.Reservation) error {
	if err := validateReservation(r, t.train.ID); err != nil {
		return err
	}

	_, err := t.tx.NamedExecContext(t.ctx, `
		INSERT INTO bookings (id, user_id, train_id, seats_booked, fare, status, booking_date)
		VALUES (:id, :user_id, :train_id, :seats_booked, :fare, :status, :booking_date)
	`, r)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (t *postgresTx) Reservation(id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	err := t.tx.GetContext(t.ctx, &r, `
		SELECT `+reservationColumns+`
		FROM bookings
		WHERE id = $1 AND train_id = $2
		FOR UPDATE
	`, id, t.train.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reservation %s on train %d: %w", id, t.train.ID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &r, nil
}

func (t *postgresTx) SetReservationStatus(id uuid.UUID, status string) error {
	if status != models.StatusConfirmed && status != models.StatusCancelled {
		return fmt.Errorf("reservation status %q: %w", status, models.ErrInvalidInput)
	}

	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE bookings
		SET status = $1
		WHERE id = $2 AND train_id = $3
	`, status, id, t.train.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("reservation %s on train %d: %w", id, t.train.ID, models.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (t *postgresTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("rollback failed: %v", err)
		return err
	}
	return nil
}

// expectOneRow turns a guarded UPDATE that matched nothing into an invariant violation
func expectOneRow(res sql.Result, err error, op string) error {
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeCheckViolation {
			return fmt.Errorf("%s: %w: %v", op, models.ErrInvariantViolation, err)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%s matched %d rows: %w", op, n, models.ErrInvariantViolation)
	}
	return nil
}

// lockError classifies a failure to take the train row lock
func lockError(ctx context.Context, trainID int64, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeLockNotAvailable, codeQueryCanceled:
			return fmt.Errorf("train %d: %w: %v", trainID, models.ErrLockTimeout, err)
		}
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("train %d: %w: %v", trainID, models.ErrLockTimeout, err)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
