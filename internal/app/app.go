package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"binkeyit_backend/internal/auth"
	"binkeyit_backend/internal/config"
	"binkeyit_backend/internal/database"
	"binkeyit_backend/internal/email"
	"binkeyit_backend/internal/handlers"
	"binkeyit_backend/internal/imageprocessor"
	"binkeyit_backend/internal/logger"
	"binkeyit_backend/internal/middleware"
	"binkeyit_backend/internal/repositories"
	"binkeyit_backend/internal/routes"
	"binkeyit_backend/internal/services"
	"binkeyit_backend/internal/storage"
	"binkeyit_backend/internal/validator"
	"binkeyit_backend/internal/workers"
)

func Run() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	router, userRepo, err := SetupRouter(cfg, db)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := workers.NewCleanupWorker(userRepo, time.Hour)
	cleanup.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    address,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает весь граф зависимостей и возвращает роутер.
// Вынесено из Run для интеграционных тестов.
func SetupRouter(cfg *config.Config, db *gorm.DB) (*gin.Engine, repositories.UserRepository, error) {
	store, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	templates, err := email.NewTemplateManager()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize email templates: %w", err)
	}
	if cfg.Email.TemplatesDir != "" {
		if err := templates.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			return nil, nil, fmt.Errorf("failed to load email templates: %w", err)
		}
	}

	emailProvider, err := email.NewSMTPProvider(cfg, templates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}

	tokens := auth.NewTokenManager(cfg)
	processor := imageprocessor.NewProcessor(cfg.Upload.AvatarSize, cfg.Upload.ImageQuality)

	userRepo := repositories.NewUserRepository(db)

	authService := services.NewAuthService(userRepo, emailProvider, tokens, cfg.Server.FrontendURL)
	userService := services.NewUserService(userRepo, store, processor, services.UploadLimits{
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	base := handlers.NewBaseHandler(validator.New())
	appHandlers := &routes.Handlers{
		Auth: handlers.NewAuthHandler(base, authService, handlers.CookieConfig{
			AccessTTL:  cfg.JWT.AccessTTL.Std(),
			RefreshTTL: cfg.JWT.RefreshTTL.Std(),
			Secure:     cfg.Server.Env == "production",
		}),
		User: handlers.NewUserHandler(base, userService, cfg.Upload.MaxSize),
		File: handlers.NewFileHandler(base, store),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.FrontendURL))

	routes.RegisterRoutes(router, appHandlers, tokens, userRepo)

	return router, userRepo, nil
}
