package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/service"
	apperrors "github.com/bheruji/learnflow-backend/internal/errors"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type RoadmapController struct {
	roadmapService service.RoadmapService
}

func NewRoadmapController(roadmapService service.RoadmapService) *RoadmapController {
	return &RoadmapController{
		roadmapService: roadmapService,
	}
}

type TopicRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type StepRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Topics      []TopicRequest `json:"topics" binding:"dive"`
}

type RoadmapCreateRequest struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Level       string        `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	RoadmapType string        `json:"roadmap_type" binding:"omitempty,oneof=static ai"`
	CreatedByAI bool          `json:"created_by_ai"`
	Tags        []string      `json:"tags"`
	Steps       []StepRequest `json:"steps" binding:"dive"`
}

func stepInput(req StepRequest) service.StepInput {
	step := service.StepInput{
		Title:       req.Title,
		Description: req.Description,
	}
	for _, topic := range req.Topics {
		step.Topics = append(step.Topics, service.TopicInput{
			Title:       topic.Title,
			Description: topic.Description,
		})
	}
	return step
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// List returns the roadmap catalog
// GET /roadmaps
func (ctrl *RoadmapController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	roadmaps, err := ctrl.roadmapService.ListRoadmaps(c.Request.Context())
	if err != nil {
		log.Error("Failed to list roadmaps", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list roadmaps")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roadmaps": roadmaps,
		"count":    len(roadmaps),
	})
}

// Get returns a roadmap without its steps
// GET /roadmaps/:id
func (ctrl *RoadmapController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roadmap, err := ctrl.roadmapService.GetRoadmap(id)
	if err != nil {
		if errors.Is(err, service.ErrRoadmapNotFound) {
			apperrors.NotFound(c, apperrors.RoadmapNotFound, "roadmap not found")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get roadmap")
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

// GetExtended returns a roadmap with ordered steps and topics
// GET /roadmaps/:id/extended
func (ctrl *RoadmapController) GetExtended(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roadmap, err := ctrl.roadmapService.GetRoadmapWithSteps(id)
	if err != nil {
		if errors.Is(err, service.ErrRoadmapNotFound) {
			apperrors.NotFound(c, apperrors.RoadmapNotFound, "roadmap not found")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get roadmap")
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

// CreateExtended creates a roadmap with nested steps and topics
// POST /roadmaps/extended
func (ctrl *RoadmapController) CreateExtended(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RoadmapCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid roadmap create request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid roadmap details")
		return
	}

	input := service.RoadmapInput{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		RoadmapType: model.RoadmapType(req.RoadmapType),
		CreatedByAI: req.CreatedByAI,
		Tags:        req.Tags,
	}
	for _, step := range req.Steps {
		input.Steps = append(input.Steps, stepInput(step))
	}

	roadmap, err := ctrl.roadmapService.CreateRoadmap(c.Request.Context(), input)
	if err != nil {
		log.Error("Failed to create roadmap", err, map[string]interface{}{
			"title": req.Title,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create roadmap")
		return
	}

	c.JSON(http.StatusCreated, roadmap)
}

// AddStep appends a step to an existing roadmap
// POST /roadmaps/:id/steps
func (ctrl *RoadmapController) AddStep(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid step details")
		return
	}

	step, err := ctrl.roadmapService.AddStep(c.Request.Context(), id, stepInput(req))
	if err != nil {
		if errors.Is(err, service.ErrRoadmapNotFound) {
			apperrors.NotFound(c, apperrors.RoadmapNotFound, "roadmap not found")
			return
		}
		log.Error("Failed to add roadmap step", err, map[string]interface{}{
			"roadmap_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "add roadmap step")
		return
	}

	c.JSON(http.StatusCreated, step)
}

// Enroll enrolls the student in a roadmap
// POST /roadmaps/:id/enroll
func (ctrl *RoadmapController) Enroll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	enrolment, err := ctrl.roadmapService.Enroll(studentID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoadmapNotFound):
			apperrors.NotFound(c, apperrors.RoadmapNotFound, "roadmap not found")
		case errors.Is(err, service.ErrAlreadyEnrolled):
			apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "already enrolled in this roadmap")
		default:
			log.Error("Failed to enroll", err, map[string]interface{}{
				"student_id": studentID,
				"roadmap_id": id,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "enroll in roadmap")
		}
		return
	}

	c.JSON(http.StatusCreated, enrolment)
}

// MyRoadmaps lists the student's enrolments with progress
// GET /my/roadmaps
func (ctrl *RoadmapController) MyRoadmaps(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	enrolments, err := ctrl.roadmapService.ListEnrolments(studentID)
	if err != nil {
		log.Error("Failed to list enrolments", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list enrolments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roadmaps": enrolments,
		"count":    len(enrolments),
	})
}

// CompleteTopic marks a topic done and returns the updated enrolment
// POST /my/roadmaps/topics/:id/complete
func (ctrl *RoadmapController) CompleteTopic(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	enrolment, err := ctrl.roadmapService.CompleteTopic(studentID, topicID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopicNotFound):
			apperrors.NotFound(c, apperrors.ResourceNotFound, "topic not found")
		case errors.Is(err, service.ErrNotEnrolled):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "not enrolled in this roadmap")
		default:
			log.Error("Failed to complete topic", err, map[string]interface{}{
				"student_id": studentID,
				"topic_id":   topicID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "complete topic")
		}
		return
	}

	c.JSON(http.StatusOK, enrolment)
}
