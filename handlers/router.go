package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"railway-booking/services"
)

// Handler serves the booking API
type Handler struct {
	Trains   *services.TrainService
	Bookings *services.BookingService
}

// NewRouter builds the gin engine with every API route
func NewRouter(h *Handler, resolver UserResolver) *gin.Engine {
	// Set Gin to release mode in production
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS configuration
	allowHeaders := append([]string{"Origin", "Content-Type", "Accept", "Authorization"}, resolver.RequestHeaders()...)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Train routes
	router.GET("/trains", h.GetTrains)
	router.GET("/trains/search", h.SearchTrains)
	router.GET("/trains/:id", h.GetTrain)

	// Routes below need a verified user
	authed := router.Group("/", RequireUser(resolver))
	{
		authed.PATCH("/trains/:id/fare", h.UpdateFare)

		authed.POST("/book", h.CreateBooking)
		authed.GET("/bookings", h.GetAllBookings)
		authed.GET("/bookings/user", h.GetUserBookings)
		authed.DELETE("/bookings/:id", h.CancelBooking)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
