// Package sandbox is a local stand-in for the Click API. It serves the same
// endpoints with the same response envelope so the CLI can be exercised
// without the hosted backend. Mail is logged instead of delivered.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clickreserve/click/internal/config"
	"github.com/clickreserve/click/internal/models"
	"github.com/clickreserve/click/internal/validation"
)

// OneTimeTokenTTL is how long verification and reset links stay valid
const OneTimeTokenTTL = 24 * time.Hour

// Server is the sandbox HTTP API
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    config.SandboxConfig
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *TokenIssuer
	mailer    Mailer
	clock     clockwork.Clock
	hashCost  int

	metrics *Metrics
	queue   *asynq.Client
	cron    *cron.Cron
}

// Option configures a Server
type Option func(*Server)

// WithMailer replaces the logging mailer
func WithMailer(m Mailer) Option {
	return func(s *Server) {
		s.mailer = m
	}
}

// WithClock sets the clock used for token expiry
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithHashCost sets the bcrypt cost
func WithHashCost(cost int) Option {
	return func(s *Server) {
		s.hashCost = cost
	}
}

// New opens the sandbox database, migrates it, seeds demo data when
// configured and builds the router
func New(cfg config.SandboxConfig, zlog zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		config:   cfg,
		logger:   zlog,
		clock:    clockwork.NewRealClock(),
		hashCost: bcrypt.DefaultCost,
		metrics:  newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.mailer == nil {
		if cfg.RedisAddr != "" {
			s.queue = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			s.mailer = NewQueueMailer(s.queue)
			zlog.Info().Str("redis", cfg.RedisAddr).Msg("Mail is delivered through the worker queue")
		} else {
			s.mailer = NewLogMailer(zlog)
		}
	}

	db, err := initDatabase(cfg.Database, zlog)
	if err != nil {
		return nil, err
	}
	s.db = db

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry, s.clock)
	if err != nil {
		return nil, err
	}
	s.tokens = tokens

	s.validator = validator.New()
	validation.RegisterRules(s.validator)

	if cfg.SeedAgent {
		if err := s.seed(); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	s.setupRouter()
	return s, nil
}

// initDatabase opens the SQLite database with the pragmas the sandbox needs
func initDatabase(path string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns = 4
		busyTimeout  = 5000 // 5 seconds
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metrics.middleware())

	origins := s.config.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", s.metrics.handler())

	users := s.router.Group("/api/users")
	{
		users.POST("/register", s.register)
		users.POST("/login", s.login)
		users.GET("/verify-email/:token", s.verifyEmail)
		users.POST("/resend-verification", s.resendVerification)
		users.POST("/forgot-password", s.forgotPassword)
		users.POST("/reset-password", s.resetPassword)

		authed := users.Group("")
		authed.Use(s.jwtAuthMiddleware())
		{
			authed.POST("/logout", s.logout)
			authed.GET("/profile", s.getProfile)
			authed.PUT("/profile", s.updateProfile)
		}
	}

	agents := s.router.Group("/api/agents")
	agents.Use(s.jwtAuthMiddleware(), s.agentOnlyMiddleware())
	{
		agents.GET("/search-users", s.searchUsers)
		agents.PUT("/bookings/:id/confirm", s.confirmBooking)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.clock.Now().UTC(),
		"service":   "click-sandbox",
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	c, err := s.startCleanup(s.config.CleanupSchedule)
	if err != nil {
		return err
	}
	s.cron = c

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting sandbox API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = s.Close()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	return s.Close()
}

// Close stops the cleanup job, the queue client and the database connection
func (s *Server) Close() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
