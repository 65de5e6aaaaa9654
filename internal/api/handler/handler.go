package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/alert"
	"github.com/jon4hz/neurofit/internal/api/models"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/jon4hz/neurofit/internal/diskusage"
	"gorm.io/gorm"
)

// AlertDispatcher delivers emergency alerts.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, sender alert.Sender, trigger alert.Trigger) alert.Result
}

type Handler struct {
	db         database.DB
	users      *cache.UserCache
	dispatcher AlertDispatcher
	diskPaths  []string
}

func New(db database.DB, users *cache.UserCache, dispatcher AlertDispatcher, diskPaths []string) *Handler {
	return &Handler{
		db:         db,
		users:      users,
		dispatcher: dispatcher,
		diskPaths:  diskPaths,
	}
}

// Index renders the entry page with the login and signup forms.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

func (h *Handler) Dashboard(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	latest, err := h.db.GetLatestHealthSample(c.Request.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("Failed to get latest health sample", "user_id", user.ID, "error", err)
		}
	}

	data := gin.H{
		"title": "Dashboard",
		"user":  user,
	}
	if latest != nil {
		data["latest"] = latest
	}
	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (h *Handler) HealthData(c *gin.Context) {
	c.HTML(http.StatusOK, "health_data.html", gin.H{
		"title": "Health Data",
		"user":  c.MustGet("user").(*models.User),
	})
}

func (h *Handler) Meditation(c *gin.Context) {
	c.HTML(http.StatusOK, "meditation.html", gin.H{
		"title": "Meditation",
		"user":  c.MustGet("user").(*models.User),
	})
}

// Healthz reports whether the server is up, along with the usage of the fullest data volume.
func (h *Handler) Healthz(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if len(h.diskPaths) > 0 {
		usage, err := diskusage.Highest(c.Request.Context(), h.diskPaths)
		if err != nil {
			log.Warn("Failed to get disk usage", "error", err)
		} else {
			resp["disk"] = usage
		}
	}
	c.JSON(http.StatusOK, resp)
}

func parseUintParam(param string) (uint64, error) {
	return strconv.ParseUint(param, 10, 0)
}

func errorJSON(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"status": "error",
		"error":  msg,
	})
}
