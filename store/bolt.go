package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"railway-booking/models"
)

var (
	trainsBucket       = []byte("trains")
	reservationsBucket = []byte("reservations")
)

// Bolt persists the catalog and reservations in a single BoltDB file.
//
// Bolt allows only one write transaction at a time, so it cannot hold a
// per-train lock across a booking by itself. Exclusivity comes from
// trainLocks; the staged writes of a scope are applied in one bolt.Update on
// commit, which keeps the seat counter and the reservation rows consistent
// on disk.
type Bolt struct {
	db    *bolt.DB
	locks *trainLocks
}

// boltReservation carries the insertion sequence used to order reservations
// created within the same instant.
type boltReservation struct {
	models.Reservation
	Seq uint64 `json:"seq"`
}

// NewBolt opens (or creates) a BoltDB database at the given path and ensures
// the buckets exist.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("error opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{trainsBucket, reservationsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating buckets: %w", err)
	}

	return &Bolt{db: db, locks: newTrainLocks()}, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) BeginTrain(ctx context.Context, trainID int64) (TrainTx, error) {
	if _, err := s.GetTrain(ctx, trainID); err != nil {
		return nil, err
	}

	release, err := s.locks.acquire(ctx, trainID)
	if err != nil {
		return nil, err
	}

	// re-read under the lock, the previous holder may have committed
	train, err := s.GetTrain(ctx, trainID)
	if err != nil {
		release()
		return nil, err
	}

	return newStagedTx(*train, release, s.lookupReservation, s.apply), nil
}

func (s *Bolt) apply(stx *stagedTx) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		trains := tx.Bucket(trainsBucket)
		reservations := tx.Bucket(reservationsBucket)

		if err := putJSON(trains, itob(stx.train.ID), stx.train); err != nil {
			return err
		}

		for _, r := range stx.created {
			if reservations.Get(r.ID[:]) != nil {
				return fmt.Errorf("reservation %s already exists: %w", r.ID, models.ErrInvariantViolation)
			}
			seq, err := reservations.NextSequence()
			if err != nil {
				return err
			}
			if err := putJSON(reservations, r.ID[:], boltReservation{Reservation: r, Seq: seq}); err != nil {
				return err
			}
		}

		for id, status := range stx.statuses {
			var rec boltReservation
			v := reservations.Get(id[:])
			if v == nil {
				return fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
			}
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			rec.Status = status
			if err := putJSON(reservations, id[:], rec); err != nil {
				return err
			}
		}
		// returning an error rolls the whole bolt transaction back
		return nil
	})
}

func (s *Bolt) lookupReservation(id uuid.UUID) (*models.Reservation, error) {
	var rec boltReservation
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(reservationsBucket).Get(id[:])
		if v == nil {
			return fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec.Reservation, nil
}

func (s *Bolt) GetTrain(_ context.Context, trainID int64) (*models.Train, error) {
	var t models.Train
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(trainsBucket).Get(itob(trainID))
		if v == nil {
			return fmt.Errorf("train %d: %w", trainID, models.ErrNotFound)
		}
		return json.Unmarshal(v, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Bolt) ListTrains(_ context.Context, filter *models.TrainFilter) ([]models.Train, error) {
	trains := []models.Train{}
	err := s.db.View(func(tx *bolt.Tx) error {
		// keys are big-endian IDs, so the cursor already walks in ID order
		return tx.Bucket(trainsBucket).ForEach(func(_, v []byte) error {
			var t models.Train
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if matchesFilter(t, filter) {
				trains = append(trains, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return trains, nil
}

func (s *Bolt) CreateTrain(_ context.Context, train *models.Train) error {
	if err := validateTrain(train); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(trainsBucket)
		if train.ID == 0 {
			id, err := b.NextSequence()
			if err != nil {
				return err
			}
			train.ID = int64(id)
		}
		if b.Get(itob(train.ID)) != nil {
			return fmt.Errorf("train %d already exists: %w", train.ID, models.ErrInvalidInput)
		}
		if uint64(train.ID) > b.Sequence() {
			if err := b.SetSequence(uint64(train.ID)); err != nil {
				return err
			}
		}
		return putJSON(b, itob(train.ID), train)
	})
}

func (s *Bolt) GetReservation(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	return s.lookupReservation(id)
}

func (s *Bolt) ListReservations(_ context.Context, userID string) ([]models.ReservationDetail, error) {
	var records []boltReservation
	trains := map[int64]models.Train{}

	err := s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(reservationsBucket).ForEach(func(_, v []byte) error {
			var rec boltReservation
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if userID == "" || rec.UserID == userID {
				records = append(records, rec)
			}
			return nil
		})
		if err != nil {
			return err
		}

		b := tx.Bucket(trainsBucket)
		for _, rec := range records {
			if _, ok := trains[rec.TrainID]; ok {
				continue
			}
			var t models.Train
			if v := b.Get(itob(rec.TrainID)); v != nil {
				if err := json.Unmarshal(v, &t); err != nil {
					return err
				}
			}
			trains[rec.TrainID] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq > records[j].Seq })
	details := make([]models.ReservationDetail, 0, len(records))
	for _, rec := range records {
		details = append(details, rec.Reservation.Detail(trains[rec.TrainID]))
	}
	sortMostRecentFirst(details)
	return details, nil
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
