package database

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Stats summarizes the stored data.
type Stats struct {
	Users          int64
	HealthSamples  int64
	LastSampleTime *time.Time
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	db := c.db.WithContext(ctx)

	if err := db.Model(&User{}).Count(&stats.Users).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&HealthSample{}).Count(&stats.HealthSamples).Error; err != nil {
		return nil, fmt.Errorf("failed to count health samples: %w", err)
	}

	if stats.HealthSamples > 0 {
		var latest HealthSample
		if err := db.Order("timestamp DESC").First(&latest).Error; err != nil {
			return nil, fmt.Errorf("failed to get latest health sample: %w", err)
		}
		stats.LastSampleTime = &latest.Timestamp
	}

	return &stats, nil
}

// Reset drops every table and recreates the schema.
func (c *Client) Reset(ctx context.Context) error {
	db := c.db.WithContext(ctx)
	migrator := db.Migrator()

	// children first, the health samples reference users
	for i := len(models) - 1; i >= 0; i-- {
		if err := migrator.DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Warn("Database reset, all tables dropped and recreated")
	return nil
}
