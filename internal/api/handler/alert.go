package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/api/models"
)

// EmergencyAlert relays the alert of the current user to the given contacts.
// Channel failures are reported in the body, the request itself still succeeds.
func (h *Handler) EmergencyAlert(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req models.EmergencyAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := h.dispatcher.Dispatch(c.Request.Context(), user.ToSender(), req.ToTrigger())
	c.JSON(http.StatusOK, models.ToEmergencyAlertResponse(result))
}
