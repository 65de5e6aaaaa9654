package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ErrInvalidSample is returned when a health sample fails validation.
var ErrInvalidSample = errors.New("invalid health sample")

// HealthSample is a single timestamped biometric reading of a user.
// Samples are append-only.
type HealthSample struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"index;not null"`
	Timestamp time.Time  `gorm:"index;not null"`
	HeartRate *float64   // beats per minute
	SpO2      *float64   `gorm:"column:spo2"` // blood oxygen saturation in percent
	BrainWave *BrainWave `gorm:"type:text;serializer:json"`
	MoodScore *float64
	CreatedAt time.Time
}

// BrainWave holds the relative power of the EEG frequency bands.
type BrainWave struct {
	Delta *float64 `json:"delta,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
	Alpha *float64 `json:"alpha,omitempty"`
	Beta  *float64 `json:"beta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
}

// UnmarshalJSON rejects bands it doesn't know about.
func (b *BrainWave) UnmarshalJSON(data []byte) error {
	type plain BrainWave
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var v plain
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("brain wave: %w", err)
	}
	*b = BrainWave(v)
	return nil
}

func (b *BrainWave) bands() map[string]*float64 {
	return map[string]*float64{
		"delta": b.Delta,
		"theta": b.Theta,
		"alpha": b.Alpha,
		"beta":  b.Beta,
		"gamma": b.Gamma,
	}
}

// IsEmpty reports whether no band is set.
func (b *BrainWave) IsEmpty() bool {
	if b == nil {
		return true
	}
	for _, v := range b.bands() {
		if v != nil {
			return false
		}
	}
	return true
}

// Validate checks the measurement ranges of the sample.
func (s *HealthSample) Validate() error {
	if s.HeartRate == nil && s.SpO2 == nil && s.MoodScore == nil && s.BrainWave.IsEmpty() {
		return fmt.Errorf("%w: at least one measurement is required", ErrInvalidSample)
	}
	if s.HeartRate != nil && (*s.HeartRate <= 0 || *s.HeartRate > 300) {
		return fmt.Errorf("%w: heart rate %.1f out of range (0, 300]", ErrInvalidSample, *s.HeartRate)
	}
	if s.SpO2 != nil && (*s.SpO2 < 0 || *s.SpO2 > 100) {
		return fmt.Errorf("%w: spo2 %.1f out of range [0, 100]", ErrInvalidSample, *s.SpO2)
	}
	if s.MoodScore != nil && (*s.MoodScore < 0 || *s.MoodScore > 100) {
		return fmt.Errorf("%w: mood score %.1f out of range [0, 100]", ErrInvalidSample, *s.MoodScore)
	}
	if s.BrainWave != nil {
		for name, v := range s.BrainWave.bands() {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: brain wave band %s must not be negative", ErrInvalidSample, name)
			}
		}
	}
	return nil
}

// BeforeCreate defaults the timestamp to the creation time.
func (s *HealthSample) BeforeCreate(_ *gorm.DB) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}
	s.Timestamp = s.Timestamp.UTC()
	return nil
}

func (c *Client) CreateHealthSample(ctx context.Context, sample *HealthSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	if err := c.db.WithContext(ctx).Create(sample).Error; err != nil {
		log.Error("failed to create health sample", "error", err, "user_id", sample.UserID)
		return err
	}
	return nil
}

// GetHealthSamples returns the samples of a user within the inclusive range [start, end],
// oldest first. A nil bound leaves that side of the range open.
func (c *Client) GetHealthSamples(ctx context.Context, userID uint, start, end *time.Time) ([]HealthSample, error) {
	query := c.db.WithContext(ctx).Where("user_id = ?", userID)
	if start != nil {
		query = query.Where("timestamp >= ?", start.UTC())
	}
	if end != nil {
		query = query.Where("timestamp <= ?", end.UTC())
	}

	samples := []HealthSample{}
	if err := query.Order("timestamp ASC").Order("id ASC").Find(&samples).Error; err != nil {
		log.Error("failed to get health samples", "error", err, "user_id", userID)
		return nil, err
	}
	return samples, nil
}

func (c *Client) GetLatestHealthSample(ctx context.Context, userID uint) (*HealthSample, error) {
	var sample HealthSample
	err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		First(&sample).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get latest health sample", "error", err, "user_id", userID)
		}
		return nil, err
	}
	return &sample, nil
}
