package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"railway-booking/models"
)

var errTxClosed = errors.New("train transaction already closed")

// stagedTx buffers the writes of one train scope and hands them to a backend
// apply func on commit. Used by the memory and bolt stores, which both rely
// on trainLocks for exclusivity.
type stagedTx struct {
	train       models.Train
	fareChanged bool
	created     []models.Reservation
	statuses    map[uuid.UUID]string

	lookup  func(id uuid.UUID) (*models.Reservation, error)
	apply   func(tx *stagedTx) error
	release func()
	done    bool
}

func newStagedTx(train models.Train, release func(), lookup func(uuid.UUID) (*models.Reservation, error), apply func(*stagedTx) error) *stagedTx {
	return &stagedTx{
		train:    train,
		statuses: map[uuid.UUID]string{},
		lookup:   lookup,
		apply:    apply,
		release:  release,
	}
}

func (tx *stagedTx) Train() models.Train {
	return tx.train
}

func (tx *stagedTx) DecrementSeats(n int) error {
	if tx.done {
		return errTxClosed
	}
	if err := checkDecrement(tx.train, n); err != nil {
		return err
	}
	tx.train.AvailableSeats -= n
	return nil
}

func (tx *stagedTx) IncrementSeats(n int) error {
	if tx.done {
		return errTxClosed
	}
	if err := checkIncrement(tx.train, n); err != nil {
		return err
	}
	tx.train.AvailableSeats += n
	return nil
}

func (tx *stagedTx) SetFare(fare decimal.Decimal) error {
	if tx.done {
		return errTxClosed
	}
	if !models.ValidAmount(fare) {
		return fmt.Errorf("fare %s: %w", fare, models.ErrInvalidInput)
	}
	tx.train.Fare = fare
	tx.fareChanged = true
	return nil
}

func (tx *stagedTx) CreateReservation(r models.Reservation) error {
	if tx.done {
		return errTxClosed
	}
	if err := validateReservation(r, tx.train.ID); err != nil {
		return err
	}
	if existing, _ := tx.Reservation(r.ID); existing != nil {
		return fmt.Errorf("reservation %s already exists: %w", r.ID, models.ErrInvariantViolation)
	}
	tx.created = append(tx.created, r)
	return nil
}

func (tx *stagedTx) Reservation(id uuid.UUID) (*models.Reservation, error) {
	if tx.done {
		return nil, errTxClosed
	}

	var found *models.Reservation
	for i := range tx.created {
		if tx.created[i].ID == id {
			r := tx.created[i]
			found = &r
			break
		}
	}
	if found == nil {
		r, err := tx.lookup(id)
		if err != nil {
			return nil, err
		}
		found = r
	}

	if found.TrainID != tx.train.ID {
		return nil, fmt.Errorf("reservation %s on train %d: %w", id, tx.train.ID, models.ErrNotFound)
	}
	if status, ok := tx.statuses[id]; ok {
		found.Status = status
	}
	return found, nil
}

func (tx *stagedTx) SetReservationStatus(id uuid.UUID, status string) error {
	if tx.done {
		return errTxClosed
	}
	if status != models.StatusConfirmed && status != models.StatusCancelled {
		return fmt.Errorf("reservation status %q: %w", status, models.ErrInvalidInput)
	}
	if _, err := tx.Reservation(id); err != nil {
		return err
	}
	tx.statuses[id] = status
	return nil
}

func (tx *stagedTx) createdHas(id uuid.UUID) bool {
	for _, r := range tx.created {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (tx *stagedTx) Commit() error {
	if tx.done {
		return errTxClosed
	}
	tx.done = true
	defer tx.release()

	return tx.apply(tx)
}

func (tx *stagedTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.release()
	return nil
}
