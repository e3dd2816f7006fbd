package repository

import (
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	FindByStudentID(studentID uint) (*model.Profile, error)
	FindEducationByStudentID(studentID uint) (*model.EducationDetail, error)
	Save(profile *model.Profile) error
	SaveEducation(education *model.EducationDetail) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByStudentID(studentID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.Where("student_id = ?", studentID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindEducationByStudentID(studentID uint) (*model.EducationDetail, error) {
	var education model.EducationDetail
	if err := r.db.Where("student_id = ?", studentID).First(&education).Error; err != nil {
		return nil, err
	}
	return &education, nil
}

func (r *profileRepository) Save(profile *model.Profile) error {
	if err := r.db.Save(profile).Error; err != nil {
		logger.Error("Failed to save profile in database", err, map[string]interface{}{
			"student_id": profile.StudentID,
		})
		return err
	}
	return nil
}

func (r *profileRepository) SaveEducation(education *model.EducationDetail) error {
	if err := r.db.Save(education).Error; err != nil {
		logger.Error("Failed to save education detail in database", err, map[string]interface{}{
			"student_id": education.StudentID,
		})
		return err
	}
	return nil
}
