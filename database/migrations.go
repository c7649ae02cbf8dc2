package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trains (
		id BIGSERIAL PRIMARY KEY,
		train_name VARCHAR(100) NOT NULL,
		source VARCHAR(50) NOT NULL,
		destination VARCHAR(50) NOT NULL,
		departure_time TIME NOT NULL,
		arrival_time TIME NOT NULL,
		total_seats INT NOT NULL DEFAULT 100,
		available_seats INT NOT NULL DEFAULT 100,
		fare NUMERIC(10,2) NOT NULL DEFAULT 0,
		CHECK (available_seats >= 0 AND available_seats <= total_seats),
		CHECK (fare >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trains_source ON trains (source)`,
	`CREATE INDEX IF NOT EXISTS idx_trains_destination ON trains (destination)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		seq BIGSERIAL,
		user_id VARCHAR(100) NOT NULL,
		train_id BIGINT NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
		seats_booked INT NOT NULL CHECK (seats_booked > 0),
		fare NUMERIC(10,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
		booking_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_train ON bookings (train_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status)`,
}

// RunMigrations ensures all required tables exist
// Note: In production, use a proper migration tool
func RunMigrations(db *sqlx.DB) error {
	log.Println("Checking database schema...")

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	log.Println("Database schema verified")
	return nil
}
