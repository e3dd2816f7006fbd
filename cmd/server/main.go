package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/controller"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/app/service"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/bheruji/learnflow-backend/internal/router"
	"github.com/bheruji/learnflow-backend/internal/scheduler"
	"github.com/bheruji/learnflow-backend/internal/storage"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/bheruji/learnflow-backend/pkg/mailer"
	"github.com/bheruji/learnflow-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting LearnFlow Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; the roadmap catalog cache degrades to misses
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	// Object storage and mail
	store := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
	)
	mail := mailer.New(cfg.SMTP)

	// Initialize repositories
	studentRepo := repository.NewStudentRepository(db.GetDB())
	verificationRepo := repository.NewVerificationRepository(db.GetDB())
	profileRepo := repository.NewProfileRepository(db.GetDB())
	noteRepo := repository.NewNoteRepository(db.GetDB())
	taskRepo := repository.NewTaskRepository(db.GetDB())
	roadmapRepo := repository.NewRoadmapRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		studentRepo,
		profileRepo,
		mail,
		db.GetDB(),
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.OTP,
	)
	profileService := service.NewProfileService(
		studentRepo,
		profileRepo,
		store,
		mail,
		db.GetDB(),
		cfg.OTP,
	)
	noteService := service.NewNoteService(noteRepo, store)
	taskService := service.NewTaskService(taskRepo)
	roadmapService := service.NewRoadmapService(roadmapRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	profileController := controller.NewProfileController(profileService)
	noteController := controller.NewNoteController(noteService)
	taskController := controller.NewTaskController(taskService)
	roadmapController := controller.NewRoadmapController(roadmapService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Background sweep of expired OTP rows
	cleanupScheduler := scheduler.NewOTPCleanupScheduler(verificationRepo)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Fatal("Failed to start OTP cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		profileController,
		noteController,
		taskController,
		roadmapController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
