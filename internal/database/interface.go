package database

import (
	"context"
	"time"
)

// DB defines the storage operations used by the application.
type DB interface {
	// Users
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Health samples
	CreateHealthSample(ctx context.Context, sample *HealthSample) error
	GetHealthSamples(ctx context.Context, userID uint, start, end *time.Time) ([]HealthSample, error)
	GetLatestHealthSample(ctx context.Context, userID uint) (*HealthSample, error)

	// Maintenance
	GetStats(ctx context.Context) (*Stats, error)
	Reset(ctx context.Context) error
	Close() error
}
