package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed seat counts or missing identifiers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for unknown trains and reservations, including
	// reservations owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientCapacity is matched by *InsufficientCapacityError.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	// ErrAlreadyCancelled is returned when cancelling a cancelled reservation.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
	// ErrInvariantViolation signals a seat bookkeeping bug. It is never retried.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrLockTimeout is returned when exclusive access to a train could not be
	// acquired in time. Nothing has been applied; the caller may retry.
	ErrLockTimeout = errors.New("timed out waiting for train lock")
)

// InsufficientCapacityError reports the seats left when a booking asks for more
type InsufficientCapacityError struct {
	Available int
	Requested int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, only %d left", e.Requested, e.Available)
}

func (e *InsufficientCapacityError) Is(err error) bool {
	return err == ErrInsufficientCapacity
}
