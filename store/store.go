// Package store holds the seat inventory and reservation records.
//
// Every mutation of a train's seat counter happens inside a TrainTx, which is
// an exclusive-access scope on that single train: while it is open no other
// TrainTx for the same train can be opened. Scopes on different trains are
// independent.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"railway-booking/models"
)

// Store is the inventory and reservation repository
type Store interface {
	// BeginTrain opens the exclusive-access scope on a train. It blocks until
	// the scope is available or ctx is done, in which case the error wraps
	// models.ErrLockTimeout.
	BeginTrain(ctx context.Context, trainID int64) (TrainTx, error)

	GetTrain(ctx context.Context, trainID int64) (*models.Train, error)
	// ListTrains returns every train when filter is nil. A non-nil filter
	// matches origin and destination by case-insensitive substring and hides
	// sold-out trains.
	ListTrains(ctx context.Context, filter *models.TrainFilter) ([]models.Train, error)
	// CreateTrain adds a train to the catalog, assigning an ID when it is zero.
	CreateTrain(ctx context.Context, train *models.Train) error

	GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	// ListReservations returns reservations most-recent-first. An empty userID
	// lists every user's reservations.
	ListReservations(ctx context.Context, userID string) ([]models.ReservationDetail, error)

	Close() error
}

// TrainTx is an open exclusive-access scope on one train. Writes are applied
// all together by Commit or not at all. Rollback after Commit is a no-op.
type TrainTx interface {
	Train() models.Train

	DecrementSeats(n int) error
	IncrementSeats(n int) error
	SetFare(fare decimal.Decimal) error

	CreateReservation(r models.Reservation) error
	// Reservation returns a reservation of this train as seen inside the scope.
	Reservation(id uuid.UUID) (*models.Reservation, error)
	SetReservationStatus(id uuid.UUID, status string) error

	Commit() error
	Rollback() error
}

func validateTrain(t *models.Train) error {
	switch {
	case t.Name == "" || t.Origin == "" || t.Destination == "":
		return fmt.Errorf("train name, source and destination are required: %w", models.ErrInvalidInput)
	case t.TotalSeats < 0:
		return fmt.Errorf("total seats %d: %w", t.TotalSeats, models.ErrInvalidInput)
	case t.AvailableSeats < 0 || t.AvailableSeats > t.TotalSeats:
		return fmt.Errorf("available seats %d outside 0..%d: %w", t.AvailableSeats, t.TotalSeats, models.ErrInvalidInput)
	case !models.ValidAmount(t.Fare):
		return fmt.Errorf("fare %s must be between 0 and %s with at most 2 decimals: %w", t.Fare, models.MaxAmount, models.ErrInvalidInput)
	}
	return nil
}

func validateReservation(r models.Reservation, trainID int64) error {
	switch {
	case r.ID == uuid.Nil:
		return fmt.Errorf("reservation id is required: %w", models.ErrInvalidInput)
	case r.TrainID != trainID:
		return fmt.Errorf("reservation for train %d created in scope of train %d: %w", r.TrainID, trainID, models.ErrInvariantViolation)
	case r.Seats <= 0:
		return fmt.Errorf("reservation seats %d: %w", r.Seats, models.ErrInvalidInput)
	case r.Status != models.StatusConfirmed && r.Status != models.StatusCancelled:
		return fmt.Errorf("reservation status %q: %w", r.Status, models.ErrInvalidInput)
	}
	return nil
}

// checkDecrement and checkIncrement guard the seat counter bounds
func checkDecrement(t models.Train, n int) error {
	if n <= 0 {
		return fmt.Errorf("decrement by %d: %w", n, models.ErrInvalidInput)
	}
	if t.AvailableSeats < n {
		return fmt.Errorf("train %d: decrement by %d with %d available: %w", t.ID, n, t.AvailableSeats, models.ErrInvariantViolation)
	}
	return nil
}

func checkIncrement(t models.Train, n int) error {
	if n <= 0 {
		return fmt.Errorf("increment by %d: %w", n, models.ErrInvalidInput)
	}
	if t.AvailableSeats+n > t.TotalSeats {
		return fmt.Errorf("train %d: increment by %d with %d/%d available: %w", t.ID, n, t.AvailableSeats, t.TotalSeats, models.ErrInvariantViolation)
	}
	return nil
}
