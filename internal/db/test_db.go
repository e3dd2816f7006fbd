package db

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// SetupTestDB creates an in-memory SQLite database for testing. Each call
// gets its own named database with a shared cache, so every pooled
// connection sees the same store; a plain ":memory:" DSN would hand each
// connection a separate empty database. The pool is capped at one
// connection so concurrent transactions serialize instead of tripping
// SQLite table locks.
func SetupTestDB(t *testing.T) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access test database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
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
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db, nil
}
