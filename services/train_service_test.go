package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railway-booking/models"
	"railway-booking/store"
)

func TestTrainService_SeedCatalog(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	trains := NewTrainService(s, time.Second)

	n, err := trains.SeedCatalog(ctx, SampleCatalog())
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = trains.SeedCatalog(ctx, SampleCatalog())
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice must not duplicate the catalog")

	all, err := trains.ListTrains(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "Rajdhani Express", all[0].Name)
	assert.Equal(t, "1850.00", models.FormatAmount(all[0].Fare))
	assert.Equal(t, all[0].TotalSeats, all[0].AvailableSeats)
}

func TestTrainService_SearchTrains(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	trains := NewTrainService(s, time.Second)
	bookings := NewBookingService(s, time.Second)
	_, err := trains.SeedCatalog(ctx, SampleCatalog())
	require.NoError(t, err)

	t.Run("should match source and destination ignoring case", func(t *testing.T) {
		found, err := trains.SearchTrains(ctx, "  mumbai ", "GOA")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Tejas Express", found[0].Name)
	})

	t.Run("should list trains with seats when no criteria given", func(t *testing.T) {
		found, err := trains.SearchTrains(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, found, 6)
	})

	t.Run("should hide sold out trains from search but not from listing", func(t *testing.T) {
		found, err := trains.SearchTrains(ctx, "mumbai", "goa")
		require.NoError(t, err)
		require.Len(t, found, 1)

		_, err = bookings.Book(ctx, "alice", found[0].ID, found[0].AvailableSeats)
		require.NoError(t, err)

		found, err = trains.SearchTrains(ctx, "mumbai", "goa")
		require.NoError(t, err)
		assert.Empty(t, found)

		all, err := trains.ListTrains(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})
}

func TestTrainService_GetTrain(t *testing.T) {
	ctx := context.Background()
	trains := NewTrainService(store.NewMemory(), time.Second)

	_, err := trains.GetTrain(ctx, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = trains.GetTrain(ctx, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTrainService_ChangeFare(t *testing.T) {
	ctx := context.Background()
	trains := NewTrainService(store.NewMemory(), time.Second)
	_, err := trains.SeedCatalog(ctx, SampleCatalog())
	require.NoError(t, err)

	t.Run("should update fare", func(t *testing.T) {
		train, err := trains.ChangeFare(ctx, 1, decimal.RequireFromString("1999.50"))
		require.NoError(t, err)
		assert.Equal(t, "1999.50", models.FormatAmount(train.Fare))

		stored, err := trains.GetTrain(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "1999.50", models.FormatAmount(stored.Fare))
	})

	t.Run("should reject invalid fares", func(t *testing.T) {
		for _, fare := range []string{"-1", "10.001", "100000000.00"} {
			_, err := trains.ChangeFare(ctx, 1, decimal.RequireFromString(fare))
			assert.ErrorIs(t, err, models.ErrInvalidInput, fare)
		}
	})

	t.Run("should return not found for unknown train", func(t *testing.T) {
		_, err := trains.ChangeFare(ctx, 99, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
