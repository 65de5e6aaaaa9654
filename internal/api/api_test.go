package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/alert"
	"github.com/jon4hz/neurofit/internal/api/auth"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database/mock"
	"github.com/stretchr/testify/suite"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	senders  []alert.Sender
	triggers []alert.Trigger
}

func (d *recordingDispatcher) Dispatch(_ context.Context, sender alert.Sender, trigger alert.Trigger) alert.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders = append(d.senders, sender)
	d.triggers = append(d.triggers, trigger)

	result := alert.Result{
		ID:    "alert-1",
		Email: alert.ChannelResult{Status: alert.StatusSkipped},
		SMS:   alert.ChannelResult{Status: alert.StatusSkipped},
	}
	if trigger.Email != "" {
		result.Email.Status = alert.StatusSent
	}
	return result
}

type ServerTestSuite struct {
	suite.Suite
	server     *Server
	db         *mock.MockDB
	dispatcher *recordingDispatcher
	cookies    []*http.Cookie
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	staticDir := s.T().TempDir()
	s.Require().NoError(os.MkdirAll(filepath.Join(staticDir, "audio", "guidance"), 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(staticDir, "audio", "rain.mp3"), []byte("rain"), 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(staticDir, "audio", "guidance", "breathing.mp3"), []byte("breathe"), 0o600))

	cfg := &config.Config{
		Listen:        "127.0.0.1:0",
		SessionKey:    "test-secret",
		SessionMaxAge: 3600,
		APIKey:        "admin-key",
		StaticDir:     staticDir,
		Cache:         &config.CacheConfig{Type: config.CacheTypeMemory},
	}
	s.db = mock.NewMockDB()
	s.dispatcher = &recordingDispatcher{}

	server, err := New(cfg, s.db, s.dispatcher, true)
	s.Require().NoError(err)
	s.server = server
	s.cookies = nil
}

func (s *ServerTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name != auth.SessionName {
			continue
		}
		if c.MaxAge < 0 {
			s.cookies = nil
			continue
		}
		s.cookies = []*http.Cookie{c}
	}
	return w
}

func (s *ServerTestSuite) signup() {
	s.signupAs("alice", "alice@example.com")
}

func (s *ServerTestSuite) signupAs(username, email string) {
	form := url.Values{
		"username": {username},
		"email":    {email},
		"password": {"hunter2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	s.Require().Equal(http.StatusFound, w.Code)
	s.Require().NotEmpty(s.cookies)
}

func (s *ServerTestSuite) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *ServerTestSuite) TestPublicRoutes() {
	healthz := s.get("/healthz")
	s.Equal(http.StatusOK, healthz.Code)
	s.Contains(healthz.Body.String(), `"status":"ok"`)
	s.Contains(healthz.Body.String(), `"usedPercent"`)

	index := s.get("/")
	s.Equal(http.StatusOK, index.Code)
	s.Contains(index.Body.String(), `action="/login"`)

	status := s.get("/api/meditation/status")
	s.Equal(http.StatusOK, status.Code)
	s.JSONEq(`{"brainwaves":{"alpha":0.8,"beta":0.4,"theta":0.6},"currentState":"Calm","sessionDuration":300}`, status.Body.String())
}

func (s *ServerTestSuite) TestStaticAudio() {
	rain := s.get("/static/audio/rain.mp3")
	s.Equal(http.StatusOK, rain.Code)
	s.Equal("rain", rain.Body.String())

	guidance := s.get("/static/audio/guidance/breathing.mp3")
	s.Equal(http.StatusOK, guidance.Code)
	s.Equal("breathe", guidance.Body.String())

	s.Equal(http.StatusNotFound, s.get("/static/audio/missing.mp3").Code)
}

func (s *ServerTestSuite) TestProtectedRoutesRedirect() {
	for _, path := range []string{"/dashboard", "/health-data", "/meditation", "/api/health-data/history"} {
		w := s.get(path)
		s.Equal(http.StatusFound, w.Code, path)
		s.Equal("/", w.Header().Get("Location"), path)
	}

	w := s.postJSON("/api/emergency-alert", `{"message":"help"}`)
	s.Equal(http.StatusFound, w.Code)
}

func (s *ServerTestSuite) TestPages() {
	s.signup()

	dashboard := s.get("/dashboard")
	s.Equal(http.StatusOK, dashboard.Code)
	s.Contains(dashboard.Body.String(), "Welcome, alice")
	s.Contains(dashboard.Body.String(), "No readings yet")

	s.Equal(http.StatusOK, s.get("/health-data").Code)
	s.Equal(http.StatusOK, s.get("/meditation").Code)
}

func (s *ServerTestSuite) TestHealthDataFlow() {
	s.signup()

	for _, body := range []string{
		`{"timestamp":"2025-03-10T08:00:00Z","heartRate":70}`,
		`{"timestamp":"2025-03-11T08:00:00Z","spo2":97.5,"brainWave":{"alpha":0.8}}`,
		`{"timestamp":"2025-03-12","moodScore":80}`,
	} {
		w := s.postJSON("/api/health-data", body)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.Contains(w.Body.String(), `"status":"success"`)
	}

	w := s.get("/api/health-data/history?start=2025-03-10&end=2025-03-11")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			ID        uint     `json:"id"`
			HeartRate *float64 `json:"heartRate"`
			SpO2      *float64 `json:"spo2"`
			BrainWave *struct {
				Alpha *float64 `json:"alpha"`
			} `json:"brainWave"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Data, 2)
	s.Equal(70.0, *resp.Data[0].HeartRate)
	s.Equal(97.5, *resp.Data[1].SpO2)
	s.Equal(0.8, *resp.Data[1].BrainWave.Alpha)

	latest := s.get("/api/health-data/history?limit=1")
	s.Require().Equal(http.StatusOK, latest.Code)
	s.Contains(latest.Body.String(), `"moodScore":80`)

	dashboard := s.get("/dashboard")
	s.Contains(dashboard.Body.String(), "80/100")
}

func (s *ServerTestSuite) TestHealthHistory_Empty() {
	s.signup()

	w := s.get("/api/health-data/history?start=2020-01-01&end=2020-01-31")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"data": []}`, w.Body.String())
}

func (s *ServerTestSuite) TestEmergencyAlert() {
	s.signup()

	w := s.postJSON("/api/emergency-alert", `{"message":"help","location":"home","email":"mom@example.com"}`)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{
		"status": "Emergency alert email sent.",
		"id": "alert-1",
		"emailResult": {"status": "sent"},
		"smsResult": {"status": "skipped"}
	}`, w.Body.String())

	s.Require().Len(s.dispatcher.senders, 1)
	s.Equal(alert.Sender{Username: "alice", Email: "alice@example.com"}, s.dispatcher.senders[0])
	s.Equal("mom@example.com", s.dispatcher.triggers[0].Email)
}

func (s *ServerTestSuite) TestResetDB() {
	s.signup()
	s.Require().Equal(http.StatusOK, s.postJSON("/api/health-data", `{"heartRate":70}`).Code)

	// a regular user may not reset
	s.Equal(http.StatusForbidden, s.get("/reset-db").Code)

	req := httptest.NewRequest(http.MethodGet, "/reset-db", nil)
	req.Header.Set(auth.APIKeyHeader, "admin-key")
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)

	stats, err := s.db.GetStats(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(0), stats.Users)
	s.Equal(int64(0), stats.HealthSamples)

	// the old session points to a deleted user
	dashboard := s.get("/dashboard")
	s.Equal(http.StatusFound, dashboard.Code)
	s.Equal("/", dashboard.Header().Get("Location"))
}

func (s *ServerTestSuite) TestResetDB_ReusedUserID() {
	s.signup()
	aliceCookies := s.cookies

	req := httptest.NewRequest(http.MethodGet, "/reset-db", nil)
	req.Header.Set(auth.APIKeyHeader, "admin-key")
	s.Require().Equal(http.StatusOK, s.do(req).Code)

	s.cookies = nil
	s.signupAs("mallory", "mallory@example.com")
	malloryCookies := s.cookies

	mallory, err := s.db.GetUserByUsername(context.Background(), "mallory")
	s.Require().NoError(err)
	s.Require().Equal(uint(1), mallory.ID)

	s.cookies = aliceCookies
	dashboard := s.get("/dashboard")
	s.Equal(http.StatusFound, dashboard.Code)
	s.Equal("/", dashboard.Header().Get("Location"))
	s.NotContains(dashboard.Body.String(), "mallory")

	s.cookies = malloryCookies
	own := s.get("/dashboard")
	s.Equal(http.StatusOK, own.Code)
	s.Contains(own.Body.String(), "Welcome, mallory")
}

func (s *ServerTestSuite) TestLogout() {
	s.signup()

	w := s.get("/logout")
	s.Equal(http.StatusFound, w.Code)

	s.Equal(http.StatusFound, s.get("/dashboard").Code)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
