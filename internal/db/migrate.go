package db

import (
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.Student{},
		&model.Profile{},
		&model.EducationDetail{},
		&model.Verification{},
		&model.PasswordResetOTP{},
		&model.EmailChangeRequest{},
		&model.Note{},
		&model.Task{},
		&model.Roadmap{},
		&model.Step{},
		&model.Topic{},
		&model.StudentRoadmap{},
		&model.TopicProgress{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
