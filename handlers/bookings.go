package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"railway-booking/models"
)

// CreateBooking books seats for the current user
func (h *Handler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUser(c)
	log.Printf("Booking request from user %s: %+v", userID, req)

	booking, err := h.Bookings.Book(c.Request.Context(), userID, req.TrainID, req.SeatsBooked)
	if err != nil {
		log.Printf("Error creating booking: %v", err)
		respondError(c, err, "Train not found")
		return
	}

	view := booking.View()
	c.JSON(http.StatusCreated, models.BookingResponse{
		Success: true,
		Message: "Booking successful",
		Booking: &view,
	})
}

// GetAllBookings lists every user's bookings (admin view)
func (h *Handler) GetAllBookings(c *gin.Context) {
	bookings, err := h.Bookings.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "Booking not found")
		return
	}

	c.JSON(http.StatusOK, bookingViews(bookings))
}

// GetUserBookings lists the current user's bookings
func (h *Handler) GetUserBookings(c *gin.Context) {
	bookings, err := h.Bookings.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "Booking not found")
		return
	}

	c.JSON(http.StatusOK, bookingViews(bookings))
}

// CancelBooking cancels one of the current user's bookings
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := h.Bookings.Cancel(c.Request.Context(), currentUser(c), id); err != nil {
		log.Printf("Error cancelling booking: %v", err)
		respondError(c, err, "Booking not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking cancelled successfully",
	})
}

func bookingViews(bookings []models.ReservationDetail) []models.ReservationView {
	views := make([]models.ReservationView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, b.View())
	}
	return views
}
