package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"railway-booking/models"
	"railway-booking/store"
)

// TrainService serves the train catalog
type TrainService struct {
	store       store.Store
	lockTimeout time.Duration
}

// NewTrainService creates a catalog service on top of the given store
func NewTrainService(s store.Store, lockTimeout time.Duration) *TrainService {
	return &TrainService{store: s, lockTimeout: lockTimeout}
}

// SearchTrains finds trains with seats left whose source and destination
// contain the given text, ignoring case
func (s *TrainService) SearchTrains(ctx context.Context, origin, destination string) ([]models.Train, error) {
	filter := &models.TrainFilter{
		Origin:      strings.TrimSpace(origin),
		Destination: strings.TrimSpace(destination),
	}

	log.Printf("Searching trains: source=%q, destination=%q", filter.Origin, filter.Destination)

	trains, err := s.store.ListTrains(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error searching trains: %w", err)
	}
	return trains, nil
}

// ListTrains returns every train, including sold-out ones
func (s *TrainService) ListTrains(ctx context.Context) ([]models.Train, error) {
	trains, err := s.store.ListTrains(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error listing trains: %w", err)
	}
	return trains, nil
}

// GetTrain retrieves a train by ID
func (s *TrainService) GetTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	if trainID <= 0 {
		return nil, fmt.Errorf("train id %d: %w", trainID, models.ErrInvalidInput)
	}
	return s.store.GetTrain(ctx, trainID)
}

// ChangeFare sets the per-seat fare for future bookings. Existing
// reservations keep the fare they were booked at.
func (s *TrainService) ChangeFare(ctx context.Context, trainID int64, fare decimal.Decimal) (*models.Train, error) {
	if trainID <= 0 {
		return nil, fmt.Errorf("train id %d: %w", trainID, models.ErrInvalidInput)
	}
	if !models.ValidAmount(fare) {
		return nil, fmt.Errorf("fare %s must be between 0 and %s with at most 2 decimals: %w", fare, models.MaxAmount, models.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	tx, err := s.store.BeginTrain(ctx, trainID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock train: %w", err)
	}
	defer tx.Rollback()

	old := tx.Train().Fare
	if err := tx.SetFare(fare); err != nil {
		return nil, fmt.Errorf("failed to update fare: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fare change: %w", err)
	}

	log.Printf("Fare changed on train %d: %s -> %s", trainID, models.FormatAmount(old), models.FormatAmount(fare))

	train := tx.Train()
	return &train, nil
}

// SeedCatalog loads the given trains when the catalog is empty. It returns
// the number of trains inserted.
func (s *TrainService) SeedCatalog(ctx context.Context, trains []models.Train) (int, error) {
	existing, err := s.store.ListTrains(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error checking catalog: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("Catalog already has %d trains, skipping seed", len(existing))
		return 0, nil
	}

	for i := range trains {
		t := trains[i]
		if err := s.store.CreateTrain(ctx, &t); err != nil {
			return i, fmt.Errorf("failed to seed train %q: %w", t.Name, err)
		}
	}

	log.Printf("Sample train data inserted (%d trains)", len(trains))
	return len(trains), nil
}
