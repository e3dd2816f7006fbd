package repository

import (
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

type RoadmapRepository interface {
	FindAll() ([]model.Roadmap, error)
	FindByID(id uint) (*model.Roadmap, error)
	FindByIDWithSteps(id uint) (*model.Roadmap, error)
	CreateWithSteps(roadmap *model.Roadmap) error
	AddStep(step *model.Step) error
	CountTopics(roadmapID uint) (int64, error)
	FindTopicRoadmapID(topicID uint) (uint, error)

	CreateEnrolment(enrolment *model.StudentRoadmap) error
	FindEnrolments(studentID uint) ([]model.StudentRoadmap, error)
	FindEnrolment(studentID, roadmapID uint) (*model.StudentRoadmap, error)
	SaveEnrolment(enrolment *model.StudentRoadmap) error
	FindTopicProgress(enrolmentID, topicID uint) (*model.TopicProgress, error)
	SaveTopicProgress(progress *model.TopicProgress) error
	CountCompletedTopics(enrolmentID uint) (int64, error)
}

type roadmapRepository struct {
	db *gorm.DB
}

func NewRoadmapRepository(db *gorm.DB) RoadmapRepository {
	return &roadmapRepository{db: db}
}

func (r *roadmapRepository) FindAll() ([]model.Roadmap, error) {
	var roadmaps []model.Roadmap
	if err := r.db.Order("created_at").Find(&roadmaps).Error; err != nil {
		return nil, err
	}
	return roadmaps, nil
}

func (r *roadmapRepository) FindByID(id uint) (*model.Roadmap, error) {
	var roadmap model.Roadmap
	if err := r.db.First(&roadmap, id).Error; err != nil {
		return nil, err
	}
	return &roadmap, nil
}

func (r *roadmapRepository) FindByIDWithSteps(id uint) (*model.Roadmap, error) {
	var roadmap model.Roadmap
	err := r.db.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("steps.step_order")
		}).
		Preload("Steps.Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("topics.topic_order")
		}).
		First(&roadmap, id).Error
	if err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// CreateWithSteps persists a roadmap together with its nested steps and
// topics in a single transaction
func (r *roadmapRepository) CreateWithSteps(roadmap *model.Roadmap) error {
	if err := r.db.Create(roadmap).Error; err != nil {
		logger.Error("Failed to create roadmap in database", err, map[string]interface{}{
			"title": roadmap.Title,
		})
		return err
	}
	return nil
}

func (r *roadmapRepository) AddStep(step *model.Step) error {
	if err := r.db.Create(step).Error; err != nil {
		logger.Error("Failed to add roadmap step in database", err, map[string]interface{}{
			"roadmap_id": step.RoadmapID,
		})
		return err
	}
	return nil
}

func (r *roadmapRepository) CountTopics(roadmapID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Topic{}).
		Joins("JOIN steps ON steps.id = topics.step_id").
		Where("steps.roadmap_id = ?", roadmapID).
		Count(&count).Error
	return count, err
}

// FindTopicRoadmapID resolves the roadmap a topic belongs to
func (r *roadmapRepository) FindTopicRoadmapID(topicID uint) (uint, error) {
	var roadmapID uint
	err := r.db.Model(&model.Topic{}).
		Select("steps.roadmap_id").
		Joins("JOIN steps ON steps.id = topics.step_id").
		Where("topics.id = ?", topicID).
		Scan(&roadmapID).Error
	if err != nil {
		return 0, err
	}
	if roadmapID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return roadmapID, nil
}

func (r *roadmapRepository) CreateEnrolment(enrolment *model.StudentRoadmap) error {
	if err := r.db.Create(enrolment).Error; err != nil {
		logger.Error("Failed to create roadmap enrolment in database", err, map[string]interface{}{
			"student_id": enrolment.StudentID,
			"roadmap_id": enrolment.RoadmapID,
		})
		return err
	}
	return nil
}

func (r *roadmapRepository) FindEnrolments(studentID uint) ([]model.StudentRoadmap, error) {
	var enrolments []model.StudentRoadmap
	err := r.db.Preload("Roadmap").
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Find(&enrolments).Error
	if err != nil {
		return nil, err
	}
	return enrolments, nil
}

func (r *roadmapRepository) FindEnrolment(studentID, roadmapID uint) (*model.StudentRoadmap, error) {
	var enrolment model.StudentRoadmap
	err := r.db.Where("student_id = ? AND roadmap_id = ?", studentID, roadmapID).
		First(&enrolment).Error
	if err != nil {
		return nil, err
	}
	return &enrolment, nil
}

func (r *roadmapRepository) SaveEnrolment(enrolment *model.StudentRoadmap) error {
	return r.db.Save(enrolment).Error
}

func (r *roadmapRepository) FindTopicProgress(enrolmentID, topicID uint) (*model.TopicProgress, error) {
	var progress model.TopicProgress
	err := r.db.Where("student_roadmap_id = ? AND topic_id = ?", enrolmentID, topicID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *roadmapRepository) SaveTopicProgress(progress *model.TopicProgress) error {
	return r.db.Save(progress).Error
}

func (r *roadmapRepository) CountCompletedTopics(enrolmentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.TopicProgress{}).
		Where("student_roadmap_id = ? AND is_completed = ?", enrolmentID, true).
		Count(&count).Error
	return count, err
}
