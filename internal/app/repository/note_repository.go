package repository

import (
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(note *model.Note) error
	FindByStudentID(studentID uint) ([]model.Note, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(note *model.Note) error {
	if err := r.db.Create(note).Error; err != nil {
		logger.Error("Failed to create note in database", err, map[string]interface{}{
			"student_id": note.StudentID,
			"title":      note.Title,
		})
		return err
	}
	return nil
}

func (r *noteRepository) FindByStudentID(studentID uint) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}
