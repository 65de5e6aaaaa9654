package models

import (
	"time"

	"github.com/jon4hz/neurofit/internal/alert"
	"github.com/jon4hz/neurofit/internal/database"
)

// User is the authenticated user attached to a request.
type User struct {
	ID       uint
	Username string
	Email    string
	IsAdmin  bool

	// AvatarURL is empty if avatars are disabled.
	AvatarURL string
}

// BrainWave is the brain-wave reading of a sample.
type BrainWave = database.BrainWave

// HealthDataRequest is the body of POST /api/health-data.
// Timestamp is optional and accepts RFC3339 or YYYY-MM-DD.
type HealthDataRequest struct {
	Timestamp string     `json:"timestamp,omitempty"`
	HeartRate *float64   `json:"heartRate,omitempty"`
	SpO2      *float64   `json:"spo2,omitempty"`
	MoodScore *float64   `json:"moodScore,omitempty"`
	BrainWave *BrainWave `json:"brainWave,omitempty"`
}

// HealthSample is a stored sample as returned by the history endpoint.
type HealthSample struct {
	ID        uint       `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	HeartRate *float64   `json:"heartRate,omitempty"`
	SpO2      *float64   `json:"spo2,omitempty"`
	MoodScore *float64   `json:"moodScore,omitempty"`
	BrainWave *BrainWave `json:"brainWave,omitempty"`
}

// HealthHistoryResponse wraps the samples of a history query.
type HealthHistoryResponse struct {
	Data []HealthSample `json:"data"`
}

// EmergencyAlertRequest is the body of POST /api/emergency-alert.
type EmergencyAlertRequest struct {
	Message  string `json:"message"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// EmergencyAlertResponse carries the per channel outcome and a human readable summary.
type EmergencyAlertResponse struct {
	Status string `json:"status"`
	alert.Result
}

// MeditationStatus is the payload of GET /api/meditation/status.
type MeditationStatus struct {
	Brainwaves      map[string]float64 `json:"brainwaves"`
	CurrentState    string             `json:"currentState"`
	SessionDuration int                `json:"sessionDuration"`
}
