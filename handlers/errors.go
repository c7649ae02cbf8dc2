package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"railway-booking/models"
)

// respondError maps a service error to its HTTP response. notFound is the
// message shown for models.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	var capacityErr *models.InsufficientCapacityError

	switch {
	case errors.As(err, &capacityErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("Not enough seats available. Only %d seats left.", capacityErr.Available),
			"available": capacityErr.Available,
			"requested": capacityErr.Requested,
		})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, models.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking already cancelled"})
	case errors.Is(err, models.ErrLockTimeout):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Train is busy, please retry"})
	default:
		if errors.Is(err, models.ErrInvariantViolation) {
			log.Printf("ERROR: invariant violation on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		} else {
			log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
