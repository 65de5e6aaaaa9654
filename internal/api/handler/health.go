package handler

import (
	"errors"
	"net/http"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/api/models"
	"github.com/jon4hz/neurofit/internal/database"
)

const maxHistoryLimit = 10000

// RecordHealthData stores a sample for the current user.
func (h *Handler) RecordHealthData(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req models.HealthDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sample, err := req.ToDatabase(user.ID)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.db.CreateHealthSample(c.Request.Context(), sample); err != nil {
		if errors.Is(err, database.ErrInvalidSample) {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("Failed to store health sample", "user_id", user.ID, "error", err)
		errorJSON(c, http.StatusInternalServerError, "failed to store health sample")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"id":     sample.ID,
	})
}

// HealthHistory returns the samples of the current user in the optional
// start/end range. limit keeps only the most recent samples.
func (h *Handler) HealthHistory(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	start, end, err := models.ParseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := parseUintParam(limitStr)
		if err != nil || l == 0 || l > maxHistoryLimit {
			errorJSON(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit, err = safecast.Convert[int](l)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
	}

	samples, err := h.db.GetHealthSamples(c.Request.Context(), user.ID, start, end)
	if err != nil {
		log.Error("Failed to get health samples", "user_id", user.ID, "error", err)
		errorJSON(c, http.StatusInternalServerError, "failed to get health samples")
		return
	}

	if limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}

	c.JSON(http.StatusOK, models.HealthHistoryResponse{
		Data: models.ToHealthSamples(samples),
	})
}

// MeditationStatus returns the current meditation metrics.
// There is no live EEG source yet, the values are fixed.
func (h *Handler) MeditationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, models.MeditationStatus{
		Brainwaves: map[string]float64{
			"alpha": 0.8,
			"beta":  0.4,
			"theta": 0.6,
		},
		CurrentState:    "Calm",
		SessionDuration: 300,
	})
}
