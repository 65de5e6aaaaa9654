package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/neurofit/internal/account"
	"github.com/jon4hz/neurofit/internal/api/auth"
	"github.com/jon4hz/neurofit/internal/api/handler"
	"github.com/jon4hz/neurofit/internal/cache"
	"github.com/jon4hz/neurofit/internal/config"
	"github.com/jon4hz/neurofit/internal/database"
	"github.com/jon4hz/neurofit/internal/diskusage"
	"github.com/jon4hz/neurofit/internal/gravatar"
	"github.com/jon4hz/neurofit/internal/static"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	db           database.DB
	userCache    *cache.UserCache
	authProvider *auth.Provider
	dispatcher   handler.AlertDispatcher
	httpServer   *http.Server
}

func New(cfg *config.Config, db database.DB, dispatcher handler.AlertDispatcher, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		return nil, err
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := static.Templates()
	if err != nil {
		return nil, err
	}

	userCache := cache.NewUserCache(cfg.Cache)
	log.Info("User cache initialized", "type", userCache.Type())

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if debug {
		ginEngine.Use(gin.Logger())
	}
	ginEngine.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:          cfg,
		ginEngine:    ginEngine,
		db:           db,
		userCache:    userCache,
		authProvider: auth.New(cfg, db, account.New(db), userCache),
		dispatcher:   dispatcher,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(auth.SessionName, store))
}

func (s *Server) setupRoutes() {
	// audio is already compressed and served with range requests
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/static/audio"})))
	s.setupSession()

	h := handler.New(s.db, s.userCache, s.dispatcher, diskusage.Paths(s.cfg))

	s.ginEngine.Static("/static", s.cfg.StaticDir)
	s.ginEngine.GET("/healthz", h.Healthz)
	s.ginEngine.GET("/", h.Index)
	s.ginEngine.POST("/login", s.authProvider.Login)
	s.ginEngine.POST("/signup", s.authProvider.Signup)
	s.ginEngine.GET("/api/meditation/status", h.MeditationStatus)

	s.ginEngine.GET("/reset-db", s.authProvider.RequireAdmin(), h.ResetDatabase)

	protected := s.ginEngine.Group("/")
	protected.Use(s.authProvider.RequireAuth())

	protected.GET("/logout", s.authProvider.Logout)
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/health-data", h.HealthData)
	protected.GET("/meditation", h.Meditation)

	// API routes
	api := protected.Group("/api")
	api.POST("/health-data", h.RecordHealthData)
	api.GET("/health-data/history", h.HealthHistory)
	api.POST("/emergency-alert", h.EmergencyAlert)
}

// Handler returns the http handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting API server", "listen", s.cfg.Listen)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}
