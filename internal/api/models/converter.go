package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/jon4hz/neurofit/internal/alert"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/jon4hz/neurofit/internal/gravatar"
	"github.com/samber/lo"
)

const dateLayout = time.DateOnly

// ToUser converts a database.User to the request scoped User.
func ToUser(u *database.User, cfg *config.Config) *User {
	user := &User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  cfg.IsAdmin(u.Username),
	}
	if cfg != nil {
		user.AvatarURL = gravatar.URL(u.Email, cfg.Gravatar)
	}
	return user
}

// ToDatabase converts the request into a sample owned by userID.
func (r *HealthDataRequest) ToDatabase(userID uint) (*database.HealthSample, error) {
	sample := &database.HealthSample{
		UserID:    userID,
		HeartRate: r.HeartRate,
		SpO2:      r.SpO2,
		MoodScore: r.MoodScore,
		BrainWave: r.BrainWave,
	}
	if strings.TrimSpace(r.Timestamp) != "" {
		ts, _, err := ParseTime(r.Timestamp)
		if err != nil {
			return nil, err
		}
		sample.Timestamp = ts
	}
	return sample, nil
}

// ToHealthSample converts a database.HealthSample to its API representation.
func ToHealthSample(s database.HealthSample) HealthSample {
	return HealthSample{
		ID:        s.ID,
		Timestamp: s.Timestamp,
		HeartRate: s.HeartRate,
		SpO2:      s.SpO2,
		MoodScore: s.MoodScore,
		BrainWave: s.BrainWave,
	}
}

// ToHealthSamples converts a slice of samples. The result is never nil.
func ToHealthSamples(samples []database.HealthSample) []HealthSample {
	if len(samples) == 0 {
		return []HealthSample{}
	}
	return lo.Map(samples, func(s database.HealthSample, _ int) HealthSample {
		return ToHealthSample(s)
	})
}

// ToTrigger converts the alert request into a dispatcher trigger.
func (r *EmergencyAlertRequest) ToTrigger() alert.Trigger {
	return alert.Trigger{
		Message:  strings.TrimSpace(r.Message),
		Location: strings.TrimSpace(r.Location),
		Email:    strings.TrimSpace(r.Email),
		Phone:    strings.TrimSpace(r.Phone),
	}
}

// ToSender returns the alert sender of the user.
func (u *User) ToSender() alert.Sender {
	return alert.Sender{
		Username: u.Username,
		Email:    u.Email,
	}
}

// ToEmergencyAlertResponse adds the human readable summary to the result.
func ToEmergencyAlertResponse(result alert.Result) EmergencyAlertResponse {
	return EmergencyAlertResponse{
		Status: result.Summary(),
		Result: result,
	}
}

// ParseTime parses RFC3339 timestamps or plain YYYY-MM-DD dates.
// dateOnly reports whether the value had no time component.
func ParseTime(value string) (t time.Time, dateOnly bool, err error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q: expected RFC3339 or YYYY-MM-DD", value)
}

// ParseRange parses the optional start and end bounds of a history query.
// A date-only end covers the whole day.
func ParseRange(startValue, endValue string) (start, end *time.Time, err error) {
	if startValue != "" {
		t, _, err := ParseTime(startValue)
		if err != nil {
			return nil, nil, fmt.Errorf("start: %w", err)
		}
		start = &t
	}
	if endValue != "" {
		t, dateOnly, err := ParseTime(endValue)
		if err != nil {
			return nil, nil, fmt.Errorf("end: %w", err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("start must not be after end")
	}
	return start, end, nil
}
