package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/bheruji/learnflow-backend/pkg/redis"
	"gorm.io/gorm"
)

var (
	ErrRoadmapNotFound = errors.New("roadmap not found")
	ErrTopicNotFound   = errors.New("topic not found")
	ErrAlreadyEnrolled = errors.New("already enrolled in this roadmap")
	ErrNotEnrolled     = errors.New("not enrolled in this roadmap")
)

const (
	roadmapCatalogCacheKey = "roadmaps:catalog"
	roadmapCatalogCacheTTL = 5 * time.Minute
)

type TopicInput struct {
	Title       string
	Description string
}

type StepInput struct {
	Title       string
	Description string
	Topics      []TopicInput
}

type RoadmapInput struct {
	Title       string
	Description string
	Level       string
	RoadmapType model.RoadmapType
	CreatedByAI bool
	Tags        []string
	Steps       []StepInput
}

type RoadmapService interface {
	ListRoadmaps(ctx context.Context) ([]model.Roadmap, error)
	GetRoadmap(id uint) (*model.Roadmap, error)
	GetRoadmapWithSteps(id uint) (*model.Roadmap, error)
	CreateRoadmap(ctx context.Context, input RoadmapInput) (*model.Roadmap, error)
	AddStep(ctx context.Context, roadmapID uint, input StepInput) (*model.Step, error)
	Enroll(studentID, roadmapID uint) (*model.StudentRoadmap, error)
	ListEnrolments(studentID uint) ([]model.StudentRoadmap, error)
	CompleteTopic(studentID, topicID uint) (*model.StudentRoadmap, error)
}

type roadmapService struct {
	roadmapRepo repository.RoadmapRepository
}

func NewRoadmapService(roadmapRepo repository.RoadmapRepository) RoadmapService {
	return &roadmapService{roadmapRepo: roadmapRepo}
}

// ListRoadmaps serves the catalog from cache when possible. A cache
// failure falls through to the database.
func (s *roadmapService) ListRoadmaps(ctx context.Context) ([]model.Roadmap, error) {
	if cached, err := redis.GetString(ctx, roadmapCatalogCacheKey); err == nil {
		var roadmaps []model.Roadmap
		if err := json.Unmarshal([]byte(cached), &roadmaps); err == nil {
			logger.Debug("Roadmap catalog served from cache", map[string]interface{}{
				"count": len(roadmaps),
			})
			return roadmaps, nil
		}
	}

	roadmaps, err := s.roadmapRepo.FindAll()
	if err != nil {
		logger.Error("Failed to list roadmaps", err, nil)
		return nil, err
	}

	if payload, err := json.Marshal(roadmaps); err == nil {
		if err := redis.SetString(ctx, roadmapCatalogCacheKey, string(payload), roadmapCatalogCacheTTL); err != nil {
			logger.Warn("Failed to cache roadmap catalog", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return roadmaps, nil
}

func (s *roadmapService) GetRoadmap(id uint) (*model.Roadmap, error) {
	roadmap, err := s.roadmapRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		logger.Error("Failed to fetch roadmap", err, map[string]interface{}{
			"roadmap_id": id,
		})
		return nil, err
	}
	return roadmap, nil
}

func (s *roadmapService) GetRoadmapWithSteps(id uint) (*model.Roadmap, error) {
	roadmap, err := s.roadmapRepo.FindByIDWithSteps(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		logger.Error("Failed to fetch roadmap with steps", err, map[string]interface{}{
			"roadmap_id": id,
		})
		return nil, err
	}
	return roadmap, nil
}

func (s *roadmapService) CreateRoadmap(ctx context.Context, input RoadmapInput) (*model.Roadmap, error) {
	logger.Info("Creating roadmap", map[string]interface{}{
		"title":      input.Title,
		"step_count": len(input.Steps),
	})

	roadmapType := input.RoadmapType
	if roadmapType == "" {
		roadmapType = model.RoadmapStatic
	}

	roadmap := &model.Roadmap{
		Title:       input.Title,
		Description: input.Description,
		Level:       input.Level,
		RoadmapType: roadmapType,
		CreatedByAI: input.CreatedByAI,
		Tags:        input.Tags,
	}
	for i, stepIn := range input.Steps {
		step := model.Step{
			Title:       stepIn.Title,
			Description: stepIn.Description,
			StepOrder:   i + 1,
		}
		for j, topicIn := range stepIn.Topics {
			step.Topics = append(step.Topics, model.Topic{
				Title:       topicIn.Title,
				Description: topicIn.Description,
				TopicOrder:  j + 1,
			})
		}
		roadmap.Steps = append(roadmap.Steps, step)
	}

	if err := s.roadmapRepo.CreateWithSteps(roadmap); err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)

	logger.Info("Roadmap created", map[string]interface{}{
		"roadmap_id": roadmap.ID,
	})
	return roadmap, nil
}

func (s *roadmapService) AddStep(ctx context.Context, roadmapID uint, input StepInput) (*model.Step, error) {
	roadmap, err := s.roadmapRepo.FindByIDWithSteps(roadmapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		return nil, err
	}

	step := &model.Step{
		RoadmapID:   roadmapID,
		Title:       input.Title,
		Description: input.Description,
		StepOrder:   len(roadmap.Steps) + 1,
	}
	for j, topicIn := range input.Topics {
		step.Topics = append(step.Topics, model.Topic{
			Title:       topicIn.Title,
			Description: topicIn.Description,
			TopicOrder:  j + 1,
		})
	}

	if err := s.roadmapRepo.AddStep(step); err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)

	logger.Info("Roadmap step added", map[string]interface{}{
		"roadmap_id": roadmapID,
		"step_id":    step.ID,
	})
	return step, nil
}

func (s *roadmapService) Enroll(studentID, roadmapID uint) (*model.StudentRoadmap, error) {
	logger.Info("Enrolling in roadmap", map[string]interface{}{
		"student_id": studentID,
		"roadmap_id": roadmapID,
	})

	if _, err := s.roadmapRepo.FindByID(roadmapID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		return nil, err
	}

	existing, err := s.roadmapRepo.FindEnrolment(studentID, roadmapID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check enrolment", err, map[string]interface{}{
			"student_id": studentID,
			"roadmap_id": roadmapID,
		})
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	enrolment := &model.StudentRoadmap{
		StudentID: studentID,
		RoadmapID: roadmapID,
		Status:    "active",
		StartedAt: time.Now(),
	}
	if err := s.roadmapRepo.CreateEnrolment(enrolment); err != nil {
		return nil, err
	}

	logger.Info("Enrolled in roadmap", map[string]interface{}{
		"student_id":   studentID,
		"roadmap_id":   roadmapID,
		"enrolment_id": enrolment.ID,
	})
	return enrolment, nil
}

func (s *roadmapService) ListEnrolments(studentID uint) ([]model.StudentRoadmap, error) {
	logger.Debug("Listing enrolments", map[string]interface{}{
		"student_id": studentID,
	})
	return s.roadmapRepo.FindEnrolments(studentID)
}

// CompleteTopic marks a topic done for the student's enrolment and
// recomputes the enrolment progress. Completing the last topic closes
// the enrolment.
func (s *roadmapService) CompleteTopic(studentID, topicID uint) (*model.StudentRoadmap, error) {
	roadmapID, err := s.roadmapRepo.FindTopicRoadmapID(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		logger.Error("Failed to resolve topic", err, map[string]interface{}{
			"topic_id": topicID,
		})
		return nil, err
	}

	enrolment, err := s.roadmapRepo.FindEnrolment(studentID, roadmapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	now := time.Now()
	progress, err := s.roadmapRepo.FindTopicProgress(enrolment.ID, topicID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		progress = &model.TopicProgress{
			StudentRoadmapID: enrolment.ID,
			TopicID:          topicID,
			StartedAt:        now,
		}
	}
	if !progress.IsCompleted {
		progress.IsCompleted = true
		progress.CompletedAt = &now
		if err := s.roadmapRepo.SaveTopicProgress(progress); err != nil {
			logger.Error("Failed to save topic progress", err, map[string]interface{}{
				"enrolment_id": enrolment.ID,
				"topic_id":     topicID,
			})
			return nil, err
		}
	}

	totalTopics, err := s.roadmapRepo.CountTopics(roadmapID)
	if err != nil {
		return nil, err
	}
	completedTopics, err := s.roadmapRepo.CountCompletedTopics(enrolment.ID)
	if err != nil {
		return nil, err
	}

	if totalTopics > 0 {
		enrolment.ProgressPercentage = int(completedTopics * 100 / totalTopics)
	}
	if totalTopics > 0 && completedTopics >= totalTopics {
		enrolment.Status = "completed"
		if enrolment.CompletedAt == nil {
			enrolment.CompletedAt = &now
		}
	}
	if err := s.roadmapRepo.SaveEnrolment(enrolment); err != nil {
		logger.Error("Failed to save enrolment progress", err, map[string]interface{}{
			"enrolment_id": enrolment.ID,
		})
		return nil, err
	}

	logger.Info("Topic completed", map[string]interface{}{
		"student_id": studentID,
		"topic_id":   topicID,
		"progress":   enrolment.ProgressPercentage,
	})
	return enrolment, nil
}

func (s *roadmapService) invalidateCatalog(ctx context.Context) {
	if err := redis.Delete(ctx, roadmapCatalogCacheKey); err != nil {
		logger.Warn("Failed to invalidate roadmap catalog cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
