package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"railway-booking/models"
	"railway-booking/store"
)

// BookingService books and cancels seats. It is the only writer of
// reservation records.
type BookingService struct {
	store       store.Store
	lockTimeout time.Duration

	now   func() time.Time
	newID func() uuid.UUID
}

// NewBookingService creates a booking service on top of the given store.
// lockTimeout bounds how long a booking waits for exclusive access to a train.
func NewBookingService(s store.Store, lockTimeout time.Duration) *BookingService {
	return &BookingService{
		store:       s,
		lockTimeout: lockTimeout,
		now:         time.Now,
		newID:       uuid.New,
	}
}

// Book reserves seats on a train for a user
func (s *BookingService) Book(ctx context.Context, userID string, trainID int64, seats int) (*models.ReservationDetail, error) {
	switch {
	case !validUserID(userID):
		return nil, fmt.Errorf("user id must be 1 to %d characters: %w", models.MaxUserIDLength, models.ErrInvalidInput)
	case trainID <= 0:
		return nil, fmt.Errorf("train id %d: %w", trainID, models.ErrInvalidInput)
	case seats <= 0:
		return nil, fmt.Errorf("seat count must be a positive integer, got %d: %w", seats, models.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx, err := s.store.BeginTrain(ctx, trainID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock train: %w", err)
	}
	defer tx.Rollback()

	train := tx.Train()
	if train.AvailableSeats < seats {
		return nil, &models.InsufficientCapacityError{Available: train.AvailableSeats, Requested: seats}
	}

	fare := train.Fare.Mul(decimal.NewFromInt(int64(seats)))
	if !models.ValidAmount(fare) {
		return nil, fmt.Errorf("booking total %s exceeds %s: %w", models.FormatAmount(fare), models.MaxAmount, models.ErrInvalidInput)
	}

	reservation := models.Reservation{
		ID:        s.newID(),
		UserID:    userID,
		TrainID:   train.ID,
		Seats:     seats,
		Fare:      fare,
		Status:    models.StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}

	if err := tx.CreateReservation(reservation); err != nil {
		return nil, s.fail("create booking", err)
	}
	if err := tx.DecrementSeats(seats); err != nil {
		return nil, s.fail("update seat availability", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.fail("commit booking", err)
	}

	log.Printf("Booking created: %s by user %s for %d seats on train %d (fare %s, %d -> %d available)",
		reservation.ID, userID, seats, train.ID, models.FormatAmount(reservation.Fare),
		train.AvailableSeats, tx.Train().AvailableSeats)

	detail := reservation.Detail(train)
	return &detail, nil
}

// Cancel cancels a user's own reservation and restores its seats
func (s *BookingService) Cancel(ctx context.Context, userID string, reservationID uuid.UUID) error {
	switch {
	case !validUserID(userID):
		return fmt.Errorf("user id must be 1 to %d characters: %w", models.MaxUserIDLength, models.ErrInvalidInput)
	case reservationID == uuid.Nil:
		return fmt.Errorf("reservation id is required: %w", models.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	found, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	// other users' bookings are indistinguishable from missing ones
	if found.UserID != userID {
		return fmt.Errorf("reservation %s: %w", reservationID, models.ErrNotFound)
	}

	tx, err := s.store.BeginTrain(ctx, found.TrainID)
	if err != nil {
		return fmt.Errorf("failed to lock train: %w", err)
	}
	defer tx.Rollback()

	reservation, err := tx.Reservation(reservationID)
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if reservation.IsCancelled() {
		return fmt.Errorf("reservation %s: %w", reservationID, models.ErrAlreadyCancelled)
	}

	if err := tx.SetReservationStatus(reservationID, models.StatusCancelled); err != nil {
		return s.fail("cancel booking", err)
	}
	if err := tx.IncrementSeats(reservation.Seats); err != nil {
		return s.fail("restore seats", err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail("commit cancellation", err)
	}

	log.Printf("Booking cancelled: %s (%d seats restored on train %d)", reservationID, reservation.Seats, reservation.TrainID)
	return nil
}

// ListForUser returns a user's reservations, most recent first
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]models.ReservationDetail, error) {
	if !validUserID(userID) {
		return nil, fmt.Errorf("user id must be 1 to %d characters: %w", models.MaxUserIDLength, models.ErrInvalidInput)
	}
	return s.store.ListReservations(ctx, userID)
}

// ListAll returns every user's reservations, most recent first
func (s *BookingService) ListAll(ctx context.Context) ([]models.ReservationDetail, error) {
	return s.store.ListReservations(ctx, "")
}

func validUserID(userID string) bool {
	return userID != "" && utf8.RuneCountInString(userID) <= models.MaxUserIDLength
}

func (s *BookingService) fail(op string, err error) error {
	if errors.Is(err, models.ErrInvariantViolation) {
		log.Printf("ERROR: seat bookkeeping invariant violated during %s: %v", op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
