package models

import "github.com/shopspring/decimal"

// Train represents a scheduled service with its seat inventory and fare
type Train struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"train_name" db:"train_name"`
	Origin         string          `json:"source" db:"source"`
	Destination    string          `json:"destination" db:"destination"`
	DepartureTime  string          `json:"departure_time" db:"departure_time"`
	ArrivalTime    string          `json:"arrival_time" db:"arrival_time"`
	TotalSeats     int             `json:"total_seats" db:"total_seats"`
	AvailableSeats int             `json:"available_seats" db:"available_seats"`
	Fare           decimal.Decimal `json:"fare" db:"fare"`
}

// TrainFilter narrows a train search by origin and destination.
// Empty fields match everything.
type TrainFilter struct {
	Origin      string
	Destination string
}

// TrainView is the wire representation of a train
type TrainView struct {
	ID             int64  `json:"id"`
	Name           string `json:"train_name"`
	Origin         string `json:"source"`
	Destination    string `json:"destination"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	Fare           string `json:"fare"`
}

// View converts the train to its wire representation
func (t Train) View() TrainView {
	return TrainView{
		ID:             t.ID,
		Name:           t.Name,
		Origin:         t.Origin,
		Destination:    t.Destination,
		DepartureTime:  t.DepartureTime,
		ArrivalTime:    t.ArrivalTime,
		TotalSeats:     t.TotalSeats,
		AvailableSeats: t.AvailableSeats,
		Fare:           FormatAmount(t.Fare),
	}
}

// FareUpdateRequest represents a fare change request
type FareUpdateRequest struct {
	Fare string `json:"fare" binding:"required"`
}

// MaxAmount is the largest fare or reservation total the catalog can hold,
// matching the NUMERIC(10,2) columns.
var MaxAmount = decimal.RequireFromString("99999999.99")

// ValidAmount reports whether d is a storable currency amount: non-negative,
// at most MaxAmount and with no more than 2 fraction digits.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(MaxAmount) && d.Equal(d.Round(2))
}

// FormatAmount renders a currency amount with 2 fraction digits
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
