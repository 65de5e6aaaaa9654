package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/account"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database"
	"gorm.io/gorm"
)

const (
	// SessionName is the name of the session cookie.
	SessionName = "neurofit_session"
	// SessionUserIDKey holds the id of the authenticated user in the session.
	SessionUserIDKey = "user_id"
	// SessionTokenKey holds the session token of the authenticated user.
	SessionTokenKey = "session_token"
	// APIKeyHeader carries the admin API key.
	APIKeyHeader = "X-API-Key"
)

// ErrStaleSession is returned when the session token no longer matches the user,
// e.g. because the id now belongs to an account created after a reset.
var ErrStaleSession = errors.New("stale session")

// Provider is the password based session manager.
type Provider struct {
	cfg      *config.Config
	db       database.DB
	accounts *account.Service
	users    *cache.UserCache
}

// New creates a new auth provider.
func New(cfg *config.Config, db database.DB, accounts *account.Service, users *cache.UserCache) *Provider {
	return &Provider{
		cfg:      cfg,
		db:       db,
		accounts: accounts,
		users:    users,
	}
}

// resolveUser returns the user of the session, from the cache if possible.
func (p *Provider) resolveUser(ctx context.Context, id uint, token string) (*database.User, error) {
	if user, err := p.users.Get(ctx, id); err == nil {
		if validToken(user, token) {
			return user, nil
		}
		p.users.Delete(ctx, id)
	}

	user, err := p.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validToken(user, token) {
		return nil, ErrStaleSession
	}
	p.users.Set(ctx, user)
	return user, nil
}

func validToken(user *database.User, token string) bool {
	if user.SessionToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.SessionToken), []byte(token)) == 1
}

// isStale reports whether err means the session no longer has a user.
func isStale(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrStaleSession)
}

func (p *Provider) startSession(c *gin.Context, user *database.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionUserIDKey, user.ID)
	session.Set(SessionTokenKey, user.SessionToken)
	if err := session.Save(); err != nil {
		return err
	}
	p.users.Set(c.Request.Context(), user)
	return nil
}

// sessionUser returns the user id and token stored in the session, if any.
func sessionUser(c *gin.Context) (uint, string, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(SessionUserIDKey).(uint)
	token, _ := session.Get(SessionTokenKey).(string)
	return id, token, ok && id != 0
}

func (p *Provider) validAPIKey(key string) bool {
	if p.cfg.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p.cfg.APIKey), []byte(key)) == 1
}
