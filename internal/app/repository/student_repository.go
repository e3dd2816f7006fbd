package repository

import (
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

type StudentRepository interface {
	Create(student *model.Student) error
	FindByID(id uint) (*model.Student, error)
	FindByEmail(email string) (*model.Student, error)
	FindByUsername(username string) (*model.Student, error)
	Update(student *model.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(student *model.Student) error {
	logger.Debug("Creating student in database", map[string]interface{}{
		"email": student.Email,
	})

	if err := r.db.Create(student).Error; err != nil {
		logger.Error("Failed to create student in database", err, map[string]interface{}{
			"email": student.Email,
		})
		return err
	}
	return nil
}

func (r *studentRepository) FindByID(id uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByEmail(email string) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("email = ?", email).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByUsername(username string) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("username = ?", username).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) Update(student *model.Student) error {
	logger.Debug("Updating student in database", map[string]interface{}{
		"student_id": student.ID,
	})

	if err := r.db.Save(student).Error; err != nil {
		logger.Error("Failed to update student in database", err, map[string]interface{}{
			"student_id": student.ID,
		})
		return err
	}
	return nil
}
