package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/account"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database/mock"
	"github.com/jon4hz/neurofit/internal/static"
	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *mock.MockDB
	users    *cache.UserCache
	provider *Provider
}

func (s *AuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SessionKey: "test-secret",
		APIKey:     "admin-key",
		AdminUsers: []string{"root"},
	}
	s.db = mock.NewMockDB()
	s.users = cache.NewUserCache(&config.CacheConfig{Type: config.CacheTypeMemory})
	s.provider = New(cfg, s.db, account.New(s.db), s.users)

	tmpl, err := static.Templates()
	s.Require().NoError(err)

	s.router = gin.New()
	s.router.SetHTMLTemplate(tmpl)
	store := cookie.NewStore([]byte(cfg.SessionKey))
	s.router.Use(sessions.Sessions(SessionName, store))

	s.router.POST("/login", s.provider.Login)
	s.router.POST("/signup", s.provider.Signup)
	s.router.GET("/logout", s.provider.Logout)

	protected := s.router.Group("/")
	protected.Use(s.provider.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})

	s.router.GET("/admin", s.provider.RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
}

func (s *AuthTestSuite) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthTestSuite) get(path string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthTestSuite) signup(username, email, password string) *httptest.ResponseRecorder {
	return s.postForm("/signup", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	})
}

func (s *AuthTestSuite) login(email, password string) *httptest.ResponseRecorder {
	return s.postForm("/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

func sessionCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	var cookies []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionName {
			cookies = append(cookies, c)
		}
	}
	return cookies
}

func (s *AuthTestSuite) TestSignup_LogsIn() {
	w := s.signup("alice", "alice@example.com", "hunter2")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/dashboard", w.Header().Get("Location"))

	me := s.get("/me", nil, sessionCookies(w)...)
	s.Equal(http.StatusOK, me.Code)
	s.Equal("alice", me.Body.String())
}

func (s *AuthTestSuite) TestSignup_DuplicateUsername() {
	s.Require().Equal(http.StatusFound, s.signup("alice", "alice@example.com", "hunter2").Code)

	w := s.signup("alice", "other@example.com", "hunter3")
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "Username already taken. Please choose another.")
	s.Empty(sessionCookies(w))

	stats, err := s.db.GetStats(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), stats.Users)
}

func (s *AuthTestSuite) TestSignup_InvalidInput() {
	w := s.signup("alice", "not-an-email", "hunter2")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuthTestSuite) TestLogin() {
	s.Require().Equal(http.StatusFound, s.signup("alice", "alice@example.com", "hunter2").Code)

	w := s.login("Alice@Example.com", "hunter2")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/dashboard", w.Header().Get("Location"))
	s.Equal(http.StatusOK, s.get("/me", nil, sessionCookies(w)...).Code)
}

func (s *AuthTestSuite) TestLogin_WrongCredentials() {
	s.Require().Equal(http.StatusFound, s.signup("alice", "alice@example.com", "hunter2").Code)

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"bob@example.com", "hunter2"},
	} {
		w := s.login(tc.email, tc.password)
		s.Equal(http.StatusFound, w.Code)
		s.Equal("/", w.Header().Get("Location"))
		s.Empty(sessionCookies(w))
	}
}

func (s *AuthTestSuite) TestRequireAuth_NoSession() {
	w := s.get("/me", nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))
}

func (s *AuthTestSuite) TestRequireAuth_StaleSession() {
	w := s.signup("alice", "alice@example.com", "hunter2")
	cookies := sessionCookies(w)

	s.Require().NoError(s.db.Reset(context.Background()))
	s.users.Clear(context.Background())

	me := s.get("/me", nil, cookies...)
	s.Equal(http.StatusFound, me.Code)
	s.Equal("/", me.Header().Get("Location"))
}

func (s *AuthTestSuite) TestRequireAuth_ReusedUserID() {
	ctx := context.Background()
	alice := sessionCookies(s.signup("alice", "alice@example.com", "hunter2"))

	s.Require().NoError(s.db.Reset(ctx))
	mallory := sessionCookies(s.signup("mallory", "mallory@example.com", "hunter2"))

	// mallory got alice's old id and is cached under it
	cached, err := s.users.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal("mallory", cached.Username)

	me := s.get("/me", nil, alice...)
	s.Equal(http.StatusFound, me.Code)
	s.Equal("/", me.Header().Get("Location"))

	_, err = s.users.Get(ctx, 1)
	s.Error(err)

	me = s.get("/me", nil, mallory...)
	s.Equal(http.StatusOK, me.Code)
	s.Equal("mallory", me.Body.String())
}

func (s *AuthTestSuite) TestLogout() {
	w := s.signup("alice", "alice@example.com", "hunter2")

	out := s.get("/logout", nil, sessionCookies(w)...)
	s.Equal(http.StatusFound, out.Code)
	s.Equal("/", out.Header().Get("Location"))

	cleared := sessionCookies(out)
	s.Require().NotEmpty(cleared)
	s.True(cleared[0].MaxAge < 0)
}

func (s *AuthTestSuite) TestRequireAdmin() {
	admin := s.signup("root", "root@example.com", "hunter2")
	regular := s.signup("alice", "alice@example.com", "hunter2")
	caseVariant := s.signup("ROOT", "root2@example.com", "hunter2")
	s.Require().Equal(http.StatusFound, caseVariant.Code)

	tests := []struct {
		name     string
		header   http.Header
		cookies  []*http.Cookie
		wantCode int
	}{
		{name: "api key", header: http.Header{APIKeyHeader: {"admin-key"}}, wantCode: http.StatusOK},
		{name: "wrong api key", header: http.Header{APIKeyHeader: {"nope"}}, wantCode: http.StatusForbidden},
		{name: "admin session", cookies: sessionCookies(admin), wantCode: http.StatusOK},
		{name: "regular session", cookies: sessionCookies(regular), wantCode: http.StatusForbidden},
		{name: "case variant of admin", cookies: sessionCookies(caseVariant), wantCode: http.StatusForbidden},
		{name: "anonymous", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.get("/admin", tt.header, tt.cookies...)
			s.Equal(tt.wantCode, w.Code)
		})
	}
}

func (s *AuthTestSuite) TestRequireAdmin_ReusedUserID() {
	ctx := context.Background()
	regular := sessionCookies(s.signup("alice", "alice@example.com", "hunter2"))

	s.Require().NoError(s.db.Reset(ctx))
	s.users.Clear(ctx)
	admin := sessionCookies(s.signup("root", "root@example.com", "hunter2"))

	// the admin now owns the id alice's cookie points to
	s.Equal(http.StatusForbidden, s.get("/admin", nil, regular...).Code)
	s.Equal(http.StatusOK, s.get("/admin", nil, admin...).Code)
}

func (s *AuthTestSuite) TestRequireAdmin_StorageError() {
	admin := sessionCookies(s.signup("root", "root@example.com", "hunter2"))
	s.users.Clear(context.Background())
	s.db.GetUserByIDError = errors.New("database is locked")

	w := s.get("/admin", nil, admin...)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AuthTestSuite) TestRequireAdmin_NoKeyConfigured() {
	s.provider.cfg.APIKey = ""

	w := s.get("/admin", http.Header{APIKeyHeader: {""}})
	s.Equal(http.StatusForbidden, w.Code)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
