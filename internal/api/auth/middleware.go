package auth

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/api/models"
)

// RequireAuth resolves the session user and stores it as "user" on the context.
// Requests without a valid session are redirected to the entry page.
func (p *Provider) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, token, ok := sessionUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		user, err := p.resolveUser(c.Request.Context(), userID, token)
		if err != nil {
			if isStale(err) {
				// the user is gone, e.g. after a reset
				log.Debug("Session references unknown user", "user_id", userID, "error", err)
				session := sessions.Default(c)
				session.Clear()
				if err := session.Save(); err != nil {
					log.Error("Failed to clear session", "error", err)
				}
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			log.Error("Failed to resolve session user", "user_id", userID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status": "error",
				"error":  "failed to resolve user",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", models.ToUser(user, p.cfg))
		c.Next()
	}
}

// RequireAdmin allows requests carrying the configured API key or coming from a
// session of a user listed in admin_users.
func (p *Provider) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.validAPIKey(c.GetHeader(APIKeyHeader)) {
			c.Set("user_id", uint(0))
			c.Set("user", &models.User{
				Username: "api_key",
				IsAdmin:  true,
			})
			c.Next()
			return
		}

		if userID, token, ok := sessionUser(c); ok {
			user, err := p.resolveUser(c.Request.Context(), userID, token)
			switch {
			case err == nil && p.cfg.IsAdmin(user.Username):
				c.Set("user_id", user.ID)
				c.Set("user", models.ToUser(user, p.cfg))
				c.Next()
				return
			case err != nil && !isStale(err):
				log.Error("Failed to resolve session user", "user_id", userID, "error", err)
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "forbidden"})
		c.Abort()
	}
}

// CurrentUser returns the user set by RequireAuth or RequireAdmin.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet("user").(*models.User)
	return user
}
