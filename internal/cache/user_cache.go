package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database"
)

// UserCachePrefix is the key prefix of cached users.
const UserCachePrefix = "user-"

// UserCache keeps recently resolved session users, keyed by user ID.
// Password hashes are never cached.
type UserCache struct {
	users *PrefixedCache[database.User]
	ttl   time.Duration
}

// NewUserCache creates a user cache backed by the configured store.
func NewUserCache(cfg *config.CacheConfig) *UserCache {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &UserCache{
		users: NewPrefixedCache[database.User](newCacheInstanceByType(cfg), cfg.Type, UserCachePrefix),
		ttl:   ttl,
	}
}

// Get returns the cached user or an error if it isn't cached.
func (u *UserCache) Get(ctx context.Context, id uint) (*database.User, error) {
	user, err := u.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Set caches the user without its password hash.
func (u *UserCache) Set(ctx context.Context, user *database.User) {
	if user == nil {
		return
	}
	cached := *user
	cached.PasswordHash = ""
	cached.HealthSamples = nil
	if err := u.users.Set(ctx, user.ID, cached, store.WithExpiration(u.ttl)); err != nil {
		log.Warn("failed to cache user", "user_id", user.ID, "error", err)
	}
}

// Delete evicts a single user.
func (u *UserCache) Delete(ctx context.Context, id uint) {
	if err := u.users.Delete(ctx, id); err != nil {
		log.Debug("failed to evict user from cache", "user_id", id, "error", err)
	}
}

// Clear evicts every cached user.
func (u *UserCache) Clear(ctx context.Context) {
	if err := u.users.Clear(ctx); err != nil {
		log.Errorf("failed to clear user cache: %v", err)
	}
}

// Type returns the store backing the cache.
func (u *UserCache) Type() config.CacheType {
	return u.users.GetType()
}

// GetStats returns the hit/miss statistics of the cache.
func (u *UserCache) GetStats() *codec.Stats {
	return u.users.GetStats()
}
