package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/alert"
	"github.com/jon4hz/neurofit/internal/api/models"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database/mock"
	"github.com/stretchr/testify/suite"
)

type stubDispatcher struct {
	calls int
}

func (d *stubDispatcher) Dispatch(context.Context, alert.Sender, alert.Trigger) alert.Result {
	d.calls++
	return alert.Result{
		ID:    "stub",
		Email: alert.ChannelResult{Status: alert.StatusSkipped},
		SMS:   alert.ChannelResult{Status: alert.StatusSkipped},
	}
}

type HandlerTestSuite struct {
	suite.Suite
	router     *gin.Engine
	db         *mock.MockDB
	dispatcher *stubDispatcher
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.db = mock.NewMockDB()
	user, err := s.db.CreateUser(context.Background(), "alice", "alice@example.com", "hash")
	s.Require().NoError(err)

	s.dispatcher = &stubDispatcher{}
	h := New(s.db, cache.NewUserCache(&config.CacheConfig{Type: config.CacheTypeMemory}), s.dispatcher, nil)

	s.router = gin.New()
	s.router.Use(func(c *gin.Context) {
		c.Set("user", &models.User{ID: user.ID, Username: user.Username, Email: user.Email})
		c.Next()
	})
	s.router.POST("/api/health-data", h.RecordHealthData)
	s.router.GET("/api/health-data/history", h.HealthHistory)
	s.router.POST("/api/emergency-alert", h.EmergencyAlert)
	s.router.GET("/reset-db", h.ResetDatabase)
	s.router.GET("/healthz", h.Healthz)
}

func (s *HandlerTestSuite) serve(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) TestRecordHealthData() {
	tests := []struct {
		name     string
		body     string
		dbErr    error
		wantCode int
	}{
		{name: "ok", body: `{"heartRate":72}`, wantCode: http.StatusOK},
		{name: "malformed json", body: `{"heartRate":`, wantCode: http.StatusBadRequest},
		{name: "unknown brain wave band", body: `{"brainWave":{"kappa":1}}`, wantCode: http.StatusBadRequest},
		{name: "no measurement", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "out of range", body: `{"spo2":140}`, wantCode: http.StatusBadRequest},
		{name: "bad timestamp", body: `{"timestamp":"soon","heartRate":72}`, wantCode: http.StatusBadRequest},
		{name: "storage failure", body: `{"heartRate":72}`, dbErr: errors.New("disk full"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.db.CreateHealthSampleError = tt.dbErr
			defer func() { s.db.CreateHealthSampleError = nil }()

			w := s.serve(http.MethodPost, "/api/health-data", tt.body)
			s.Equal(tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				s.Contains(w.Body.String(), `"status":"error"`)
			}
		})
	}
}

func (s *HandlerTestSuite) TestHealthHistory_BadRequests() {
	for _, path := range []string{
		"/api/health-data/history?start=2025-03-02&end=2025-03-01",
		"/api/health-data/history?start=yesterday",
		"/api/health-data/history?limit=0",
		"/api/health-data/history?limit=-3",
		"/api/health-data/history?limit=1000000",
	} {
		w := s.serve(http.MethodGet, path, "")
		s.Equal(http.StatusBadRequest, w.Code, path)
	}
}

func (s *HandlerTestSuite) TestHealthHistory_StorageFailure() {
	s.db.GetHealthSamplesError = errors.New("connection lost")

	w := s.serve(http.MethodGet, "/api/health-data/history", "")
	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *HandlerTestSuite) TestEmergencyAlert_BadBody() {
	w := s.serve(http.MethodPost, "/api/emergency-alert", `not json`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(0, s.dispatcher.calls)
}

func (s *HandlerTestSuite) TestEmergencyAlert_NoRecipients() {
	w := s.serve(http.MethodPost, "/api/emergency-alert", `{"message":"help"}`)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":""`)
	s.Equal(1, s.dispatcher.calls)
}

func (s *HandlerTestSuite) TestResetDatabase_Failure() {
	s.db.ResetError = errors.New("locked")

	w := s.serve(http.MethodGet, "/reset-db", "")
	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *HandlerTestSuite) TestHealthz_WithoutDiskPaths() {
	w := s.serve(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
