// Package server
//
// @title MuseuCom API
// @version 1.0
// @description Museum catalog development API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Herculano1234/MuseuCom/internal/auth"
	"github.com/Herculano1234/MuseuCom/internal/config"
	"github.com/Herculano1234/MuseuCom/internal/models"
)

var (
	serialPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9./-]*$`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	jwt       *auth.JWTManager
	version   string
	now       func() time.Time
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.NewSecret()
		if err != nil {
			return nil, err
		}
		zlog.Warn().Msg("JWT_SECRET not set, using a random secret. Tokens will not survive a restart")
	}

	jwtManager, err := auth.NewJWTManager(secret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		jwt:       jwtManager,
		version:   version,
		now:       time.Now,
	}

	if err := server.seedAdmin(); err != nil {
		return nil, err
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()

	// Serial numbers: letters, digits, dots, slashes and hyphens
	validate.RegisterValidation("serial", func(fl validator.FieldLevel) bool {
		return serialPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return validate
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // ms
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
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
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
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

// seedAdmin creates the configured administrador account if it does not exist
func (s *Server) seedAdmin() error {
	admin := s.config.Admin
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.Email == "" || admin.Password == "" {
		s.logger.Debug().Msg("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := s.db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		s.logger.Debug().Str("email", admin.Email).Msg("Admin account already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("Admin account created")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	// Serial numbers may contain an escaped "/"
	s.router.UseRawPath = true

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", totalCountHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireJWT := JWTAuthMiddleware(s.db, s.jwt, s.logger)
	adminOnly := AdminOnlyMiddleware(s.logger)

	// Public endpoints
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/auth/login", s.login)
	s.router.POST("/auth/refresh", s.refresh)
	s.router.POST("/auth/logout", s.logout)
	s.router.POST("/usuarios", s.signup)
	s.router.GET("/materiais", s.listMaterials)
	s.router.GET("/materiais/:id", s.getMaterial)
	s.router.GET("/materiais/serie/:serial", s.getMaterialBySerial)

	// Authenticated endpoints
	s.router.GET("/me", requireJWT, s.getCurrentUser)
	s.router.GET("/dashboard", requireJWT, s.getDashboard)
	s.router.POST("/materiais", requireJWT, s.createMaterial)
	s.router.PUT("/materiais/:id", requireJWT, s.updateMaterial)

	// Administrador only
	s.router.GET("/usuarios", requireJWT, adminOnly, s.listUsers)
	s.router.DELETE("/materiais/:id", requireJWT, adminOnly, s.deleteMaterial)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.HTTP.Addr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Flush WAL writes
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
