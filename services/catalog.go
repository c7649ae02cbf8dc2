package services

import (
	"github.com/shopspring/decimal"

	"railway-booking/models"
)

// SampleCatalog returns the trains loaded on first start
func SampleCatalog() []models.Train {
	return []models.Train{
		sampleTrain("Rajdhani Express", "New Delhi", "Mumbai Central", "08:30:00", "16:45:00", 120, "1850.00"),
		sampleTrain("Shatabdi Express", "Chennai Central", "Bangalore", "14:20:00", "21:15:00", 150, "1520.00"),
		sampleTrain("Duronto Express", "Kolkata", "Delhi", "23:10:00", "06:30:00", 200, "1320.00"),
		sampleTrain("Garib Rath Express", "Mumbai", "Ahmedabad", "06:15:00", "11:30:00", 180, "850.00"),
		sampleTrain("Vande Bharat Express", "Delhi", "Varanasi", "06:00:00", "14:00:00", 160, "2200.00"),
		sampleTrain("Tejas Express", "Mumbai", "Goa", "05:00:00", "12:30:00", 140, "1680.00"),
	}
}

func sampleTrain(name, source, destination, departure, arrival string, seats int, fare string) models.Train {
	return models.Train{
		Name:           name,
		Origin:         source,
		Destination:    destination,
		DepartureTime:  departure,
		ArrivalTime:    arrival,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Fare:           decimal.RequireFromString(fare),
	}
}
