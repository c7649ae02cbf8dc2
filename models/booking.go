package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation statuses
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// MaxUserIDLength matches the width of the bookings.user_id column
const MaxUserIDLength = 100

// Reservation represents seats held by a user on a train
type Reservation struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	TrainID   int64           `json:"train_id" db:"train_id"`
	Seats     int             `json:"seats_booked" db:"seats_booked"`
	Fare      decimal.Decimal `json:"fare" db:"fare"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"booking_date" db:"booking_date"`
}

// IsCancelled reports whether the reservation has been cancelled
func (r Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// ReservationDetail is a reservation joined with the display fields of its train
type ReservationDetail struct {
	Reservation

	// Joined fields
	TrainName     string `json:"train_name" db:"train_name"`
	Origin        string `json:"source" db:"source"`
	Destination   string `json:"destination" db:"destination"`
	DepartureTime string `json:"departure_time" db:"departure_time"`
	ArrivalTime   string `json:"arrival_time" db:"arrival_time"`
}

// Detail projects the reservation onto the given train
func (r Reservation) Detail(t Train) ReservationDetail {
	return ReservationDetail{
		Reservation:   r,
		TrainName:     t.Name,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
	}
}

// ReservationView is the wire representation of a reservation
type ReservationView struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	TrainID       int64     `json:"train_id"`
	SeatsBooked   int       `json:"seats_booked"`
	Fare          string    `json:"fare"`
	Status        string    `json:"status"`
	BookingDate   string    `json:"booking_date"`
	TrainName     string    `json:"train_name"`
	Origin        string    `json:"source"`
	Destination   string    `json:"destination"`
	DepartureTime string    `json:"departure_time,omitempty"`
	ArrivalTime   string    `json:"arrival_time,omitempty"`
}

// View converts the detail to its wire representation
func (d ReservationDetail) View() ReservationView {
	return ReservationView{
		ID:            d.ID,
		UserID:        d.UserID,
		TrainID:       d.TrainID,
		SeatsBooked:   d.Seats,
		Fare:          FormatAmount(d.Fare),
		Status:        d.Status,
		BookingDate:   d.CreatedAt.UTC().Format(time.RFC3339),
		TrainName:     d.TrainName,
		Origin:        d.Origin,
		Destination:   d.Destination,
		DepartureTime: d.DepartureTime,
		ArrivalTime:   d.ArrivalTime,
	}
}

// BookingRequest represents a booking creation request
type BookingRequest struct {
	TrainID     int64 `json:"train_id"`
	SeatsBooked int   `json:"seats_booked"`
}

// BookingResponse represents a booking creation response
type BookingResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Booking *ReservationView `json:"booking,omitempty"`
}
