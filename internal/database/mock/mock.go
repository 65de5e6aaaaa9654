package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jon4hz/neurofit/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	users      map[uint]*database.User
	nextUserID uint

	samples      []database.HealthSample
	nextSampleID uint

	// Error simulation
	CreateUserError          error
	GetUserByIDError         error
	GetUserByEmailError      error
	CreateHealthSampleError  error
	GetHealthSamplesError    error
	GetLatestHealthSampleErr error
	ResetError               error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:        make(map[uint]*database.User),
		nextUserID:   1,
		nextSampleID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset(ctx context.Context) error {
	if m.ResetError != nil {
		return m.ResetError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.samples = nil
	m.nextSampleID = 1
	return nil
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, username, email, passwordHash string) (*database.User, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return nil, gorm.ErrDuplicatedKey
		}
	}

	now := time.Now()
	user := &database.User{
		ID:           m.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		SessionToken: uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	m.nextUserID++

	copied := *user
	return &copied, nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetUserByEmailError != nil {
		return nil, m.GetUserByEmailError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Health sample operations

func (m *MockDB) CreateHealthSample(ctx context.Context, sample *database.HealthSample) error {
	if m.CreateHealthSampleError != nil {
		return m.CreateHealthSampleError
	}
	if err := sample.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[sample.UserID]; !ok {
		return gorm.ErrForeignKeyViolated
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	sample.Timestamp = sample.Timestamp.UTC()
	sample.ID = m.nextSampleID
	sample.CreatedAt = time.Now()
	m.nextSampleID++
	m.samples = append(m.samples, *sample)
	return nil
}

func (m *MockDB) GetHealthSamples(ctx context.Context, userID uint, start, end *time.Time) ([]database.HealthSample, error) {
	if m.GetHealthSamplesError != nil {
		return nil, m.GetHealthSamplesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []database.HealthSample{}
	for _, s := range m.samples {
		if s.UserID != userID {
			continue
		}
		if start != nil && s.Timestamp.Before(*start) {
			continue
		}
		if end != nil && s.Timestamp.After(*end) {
			continue
		}
		result = append(result, s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m *MockDB) GetLatestHealthSample(ctx context.Context, userID uint) (*database.HealthSample, error) {
	if m.GetLatestHealthSampleErr != nil {
		return nil, m.GetLatestHealthSampleErr
	}

	samples, err := m.GetHealthSamples(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := samples[len(samples)-1]
	return &latest, nil
}

// Maintenance

func (m *MockDB) GetStats(ctx context.Context) (*database.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &database.Stats{
		Users:         int64(len(m.users)),
		HealthSamples: int64(len(m.samples)),
	}
	for _, s := range m.samples {
		if stats.LastSampleTime == nil || s.Timestamp.After(*stats.LastSampleTime) {
			ts := s.Timestamp
			stats.LastSampleTime = &ts
		}
	}
	return stats, nil
}

func (m *MockDB) Close() error {
	return nil
}
