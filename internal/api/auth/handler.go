package auth

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/account"
)

// Login authenticates the email and password form fields.
// Any failure silently sends the user back to the entry page.
func (p *Provider) Login(c *gin.Context) {
	user, err := p.accounts.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, account.ErrInvalidCredentials) {
			log.Error("Failed to authenticate user", "error", err)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := p.startSession(c, user); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	log.Debug("User logged in", "user_id", user.ID)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Signup registers a new account and logs it in.
func (p *Provider) Signup(c *gin.Context) {
	user, err := p.accounts.Register(c.Request.Context(), c.PostForm("username"), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		status, message := signupError(err)
		if status == http.StatusInternalServerError {
			log.Error("Failed to register user", "error", err)
		}
		c.HTML(status, "index.html", gin.H{"error": message})
		return
	}

	if err := p.startSession(c, user); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err) //nolint:errcheck
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

func signupError(err error) (int, string) {
	switch {
	case errors.Is(err, account.ErrDuplicateUsername):
		return http.StatusConflict, "Username already taken. Please choose another."
	case errors.Is(err, account.ErrDuplicateEmail):
		return http.StatusConflict, "Email already registered. Please log in instead."
	case errors.Is(err, account.ErrInvalidInput):
		return http.StatusBadRequest, "Please provide a username, a valid email and a password."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// Logout ends the session.
func (p *Provider) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}
