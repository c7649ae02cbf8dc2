package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"railway-booking/models"
)

// GetTrains returns every train
func (h *Handler) GetTrains(c *gin.Context) {
	trains, err := h.Trains.ListTrains(c.Request.Context())
	if err != nil {
		respondError(c, err, "Train not found")
		return
	}

	c.JSON(http.StatusOK, trainViews(trains))
}

// SearchTrains searches trains with seats left by source and destination
func (h *Handler) SearchTrains(c *gin.Context) {
	trains, err := h.Trains.SearchTrains(c.Request.Context(), c.Query("source"), c.Query("destination"))
	if err != nil {
		respondError(c, err, "Train not found")
		return
	}

	c.JSON(http.StatusOK, trainViews(trains))
}

// GetTrain returns train details by ID
func (h *Handler) GetTrain(c *gin.Context) {
	id, ok := trainIDParam(c)
	if !ok {
		return
	}

	train, err := h.Trains.GetTrain(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Train not found")
		return
	}

	c.JSON(http.StatusOK, train.View())
}

// UpdateFare changes a train's per-seat fare
func (h *Handler) UpdateFare(c *gin.Context) {
	id, ok := trainIDParam(c)
	if !ok {
		return
	}

	var req models.FareUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fare, err := decimal.NewFromString(req.Fare)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fare"})
		return
	}

	train, err := h.Trains.ChangeFare(c.Request.Context(), id, fare)
	if err != nil {
		respondError(c, err, "Train not found")
		return
	}

	c.JSON(http.StatusOK, train.View())
}

func trainIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid train ID"})
		return 0, false
	}
	return id, true
}

func trainViews(trains []models.Train) []models.TrainView {
	views := make([]models.TrainView, 0, len(trains))
	for _, t := range trains {
		views = append(views, t.View())
	}
	return views
}
