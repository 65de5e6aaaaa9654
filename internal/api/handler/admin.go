package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/api/models"
)

// ResetDatabase drops and recreates all tables.
func (h *Handler) ResetDatabase(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	if err := h.db.Reset(c.Request.Context()); err != nil {
		log.Error("Failed to reset database", "error", err)
		errorJSON(c, http.StatusInternalServerError, "failed to reset database")
		return
	}
	h.users.Clear(c.Request.Context())

	log.Warn("Database reset", "by", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Database reset. All tables dropped and recreated.",
	})
}
