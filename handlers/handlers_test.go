package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railway-booking/models"
	"railway-booking/services"
	"railway-booking/store"
)

type testServer struct {
	store  *store.Memory
	router *gin.Engine
}

func newTestServer(t *testing.T, lockTimeout time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemory()
	trains := services.NewTrainService(s, lockTimeout)
	_, err := trains.SeedCatalog(context.Background(), []models.Train{
		services.SampleCatalog()[0],
	})
	require.NoError(t, err)

	// a small train for capacity scenarios
	small := services.SampleCatalog()[5]
	small.TotalSeats, small.AvailableSeats = 2, 2
	require.NoError(t, s.CreateTrain(context.Background(), &small))

	h := &Handler{Trains: trains, Bookings: services.NewBookingService(s, lockTimeout)}
	return &testServer{store: s, router: NewRouter(h, HeaderResolver{Header: "X-User-ID"})}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, time.Second)
	w := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestTrainRoutes(t *testing.T) {
	srv := newTestServer(t, time.Second)

	t.Run("should list trains with formatted fares", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/trains", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		trains := decode[[]models.TrainView](t, w)
		require.Len(t, trains, 2)
		assert.Equal(t, "Rajdhani Express", trains[0].Name)
		assert.Equal(t, "1850.00", trains[0].Fare)
	})

	t.Run("should search by source and destination", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/trains/search?source=MUM&destination=goa", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		trains := decode[[]models.TrainView](t, w)
		require.Len(t, trains, 1)
		assert.Equal(t, "Tejas Express", trains[0].Name)
	})

	t.Run("should get one train", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/trains/1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decode[models.TrainView](t, w).ID)
	})

	t.Run("should reject bad and unknown ids", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/trains/abc", "", nil).Code)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/trains/99", "", nil).Code)
	})

	t.Run("should change fare for authenticated users", func(t *testing.T) {
		w := srv.do(t, http.MethodPatch, "/trains/1/fare", "", gin.H{"fare": "10.00"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = srv.do(t, http.MethodPatch, "/trains/1/fare", "admin", gin.H{"fare": "abc"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = srv.do(t, http.MethodPatch, "/trains/1/fare", "admin", gin.H{"fare": "100000000.00"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = srv.do(t, http.MethodPatch, "/trains/1/fare", "admin", gin.H{"fare": "1900.5"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1900.50", decode[models.TrainView](t, w).Fare)
	})
}

func TestBookingRoutes(t *testing.T) {
	srv := newTestServer(t, time.Second)
	const small = "/trains/2"

	t.Run("should require a user", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/book", "", gin.H{"train_id": 2, "seats_booked": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should reject invalid seat counts", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 2, "seats_booked": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return not found for unknown train", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 77, "seats_booked": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should reject user ids longer than the bookings table allows", func(t *testing.T) {
		user := strings.Repeat("u", models.MaxUserIDLength+1)
		w := srv.do(t, http.MethodPost, "/book", user, gin.H{"train_id": 2, "seats_booked": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/bookings/user", user, nil).Code)
	})

	var bookingID string

	t.Run("should book and report capacity", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 2, "seats_booked": 2})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decode[models.BookingResponse](t, w)
		require.NotNil(t, resp.Booking)
		assert.Equal(t, "3360.00", resp.Booking.Fare)
		assert.Equal(t, "Tejas Express", resp.Booking.TrainName)
		assert.Equal(t, "Mumbai", resp.Booking.Origin)
		assert.Equal(t, "Goa", resp.Booking.Destination)
		_, err := time.Parse(time.RFC3339, resp.Booking.BookingDate)
		assert.NoError(t, err)
		bookingID = resp.Booking.ID.String()

		w = srv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 2, "seats_booked": 1})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[map[string]interface{}](t, w)
		assert.Equal(t, float64(0), body["available"])
		assert.Equal(t, float64(1), body["requested"])
	})

	t.Run("should list bookings for user and for everyone", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/bookings/user", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.ReservationView](t, w), 1)

		w = srv.do(t, http.MethodGet, "/bookings/user", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]models.ReservationView](t, w))

		w = srv.do(t, http.MethodGet, "/bookings", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.ReservationView](t, w), 1)
	})

	t.Run("should only let the owner cancel", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodDelete, "/bookings/not-a-uuid", "alice", nil).Code)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/bookings/"+bookingID, "bob", nil).Code)

		w := srv.do(t, http.MethodDelete, "/bookings/"+bookingID, "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = srv.do(t, http.MethodDelete, "/bookings/"+bookingID, "alice", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Booking already cancelled", decode[map[string]string](t, w)["error"])

		w = srv.do(t, http.MethodGet, small, "", nil)
		assert.Equal(t, 2, decode[models.TrainView](t, w).AvailableSeats)
	})
}

func TestBookingRoutes_LockTimeout(t *testing.T) {
	srv := newTestServer(t, 20*time.Millisecond)

	held, err := srv.store.BeginTrain(context.Background(), 2)
	require.NoError(t, err)
	defer held.Rollback()

	w := srv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 2, "seats_booked": 1})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestNoRoute(t *testing.T) {
	srv := newTestServer(t, time.Second)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/nope", "", nil).Code)
}

// faultyStore breaks seat bookkeeping inside every train scope
type faultyStore struct {
	store.Store
}

func (s faultyStore) BeginTrain(ctx context.Context, trainID int64) (store.TrainTx, error) {
	tx, err := s.Store.BeginTrain(ctx, trainID)
	if err != nil {
		return nil, err
	}
	return faultyTx{TrainTx: tx}, nil
}

type faultyTx struct {
	store.TrainTx
}

func (faultyTx) DecrementSeats(n int) error {
	return fmt.Errorf("seat counter drifted: %w", models.ErrInvariantViolation)
}

func TestBookingRoutes_InvariantViolation(t *testing.T) {
	srv := newTestServer(t, time.Second)
	broken := &Handler{
		Trains:   services.NewTrainService(srv.store, time.Second),
		Bookings: services.NewBookingService(faultyStore{Store: srv.store}, time.Second),
	}
	brokenSrv := &testServer{store: srv.store, router: NewRouter(broken, HeaderResolver{Header: "X-User-ID"})}

	t.Run("should answer 500 without applying the booking", func(t *testing.T) {
		w := brokenSrv.do(t, http.MethodPost, "/book", "alice", gin.H{"train_id": 2, "seats_booked": 1})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode[map[string]string](t, w)["error"])

		train, err := srv.store.GetTrain(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 2, train.AvailableSeats)
		reservations, err := srv.store.ListReservations(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, reservations)
	})
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&Handler{}, HeaderResolver{Header: "X-Gateway-User"})

	t.Run("should let browsers send the user header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/book", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "X-Gateway-User, Content-Type")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Less(t, w.Code, 300)
		allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, allowed, "x-gateway-user")
		assert.Contains(t, allowed, "content-type")
	})
}
