package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"railway-booking/models"
)

// Memory keeps the catalog and reservations in process memory
type Memory struct {
	locks *trainLocks

	mu           sync.RWMutex
	trains       map[int64]models.Train
	reservations map[uuid.UUID]models.Reservation
	order        []uuid.UUID
	lastTrainID  int64
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		locks:        newTrainLocks(),
		trains:       map[int64]models.Train{},
		reservations: map[uuid.UUID]models.Reservation{},
	}
}

func (m *Memory) BeginTrain(ctx context.Context, trainID int64) (TrainTx, error) {
	// trains are never removed, so only known IDs get a lock table entry
	m.mu.RLock()
	_, ok := m.trains[trainID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("train %d: %w", trainID, models.ErrNotFound)
	}

	release, err := m.locks.acquire(ctx, trainID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	train := m.trains[trainID]
	m.mu.RUnlock()

	return newStagedTx(train, release, m.lookupReservation, m.apply), nil
}

func (m *Memory) lookupReservation(id uuid.UUID) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
	}
	return &r, nil
}

func (m *Memory) apply(tx *stagedTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate everything before touching state so a failed commit applies nothing
	for _, r := range tx.created {
		if _, exists := m.reservations[r.ID]; exists {
			return fmt.Errorf("reservation %s already exists: %w", r.ID, models.ErrInvariantViolation)
		}
	}
	for id := range tx.statuses {
		if _, exists := m.reservations[id]; !exists && !tx.createdHas(id) {
			return fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
		}
	}

	m.trains[tx.train.ID] = tx.train
	for _, r := range tx.created {
		m.reservations[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	for id, status := range tx.statuses {
		r := m.reservations[id]
		r.Status = status
		m.reservations[id] = r
	}
	return nil
}

func (m *Memory) GetTrain(_ context.Context, trainID int64) (*models.Train, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trains[trainID]
	if !ok {
		return nil, fmt.Errorf("train %d: %w", trainID, models.ErrNotFound)
	}
	return &t, nil
}

func (m *Memory) ListTrains(_ context.Context, filter *models.TrainFilter) ([]models.Train, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trains := []models.Train{}
	for _, t := range m.trains {
		if matchesFilter(t, filter) {
			trains = append(trains, t)
		}
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].ID < trains[j].ID })
	return trains, nil
}

func (m *Memory) CreateTrain(_ context.Context, train *models.Train) error {
	if err := validateTrain(train); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if train.ID == 0 {
		train.ID = m.lastTrainID + 1
	}
	if _, exists := m.trains[train.ID]; exists {
		return fmt.Errorf("train %d already exists: %w", train.ID, models.ErrInvalidInput)
	}
	if train.ID > m.lastTrainID {
		m.lastTrainID = train.ID
	}
	m.trains[train.ID] = *train
	return nil
}

func (m *Memory) GetReservation(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	return m.lookupReservation(id)
}

func (m *Memory) ListReservations(_ context.Context, userID string) ([]models.ReservationDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := []models.ReservationDetail{}
	// newest insertion first, so the stable sort breaks timestamp ties the same way
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.reservations[m.order[i]]
		if userID != "" && r.UserID != userID {
			continue
		}
		details = append(details, r.Detail(m.trains[r.TrainID]))
	}
	sortMostRecentFirst(details)
	return details, nil
}

func (m *Memory) Close() error {
	return nil
}

func matchesFilter(t models.Train, filter *models.TrainFilter) bool {
	if filter == nil {
		return true
	}
	if t.AvailableSeats <= 0 {
		return false
	}
	return containsFold(t.Origin, filter.Origin) && containsFold(t.Destination, filter.Destination)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortMostRecentFirst(details []models.ReservationDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].CreatedAt.After(details[j].CreatedAt)
	})
}
