package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/app/service"
	apperrors "github.com/bheruji/learnflow-backend/internal/errors"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type TaskController struct {
	taskService service.TaskService
}

func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

type TaskCreateRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	Subject        string   `json:"subject" binding:"required"`
	Topic          string   `json:"topic"`
	Priority       string   `json:"priority" binding:"omitempty,oneof=high medium low"`
	PlannedDate    string   `json:"planned_date" binding:"required"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

type TaskUpdateRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	Subject        *string  `json:"subject"`
	Topic          *string  `json:"topic"`
	Status         *string  `json:"status" binding:"omitempty,oneof=pending completed missed"`
	Priority       *string  `json:"priority" binding:"omitempty,oneof=high medium low"`
	PlannedDate    *string  `json:"planned_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
}

// Create adds a task
// POST /api/tasks
func (ctrl *TaskController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid task create request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid task details")
		return
	}

	plannedDate, err := time.Parse("2006-01-02", req.PlannedDate)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "planned_date must be YYYY-MM-DD")
		return
	}

	task, err := ctrl.taskService.CreateTask(studentID, service.TaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Subject:        req.Subject,
		Topic:          req.Topic,
		Priority:       model.TaskPriority(req.Priority),
		PlannedDate:    plannedDate,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		log.Error("Failed to create task", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

// List returns tasks, optionally filtered by date and status
// GET /api/tasks?planned_date=YYYY-MM-DD&status=pending
func (ctrl *TaskController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var filter repository.TaskFilter
	if dateStr := c.Query("planned_date"); dateStr != "" {
		plannedDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "planned_date must be YYYY-MM-DD")
			return
		}
		filter.PlannedDate = &plannedDate
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := model.TaskStatus(statusStr)
		if status != model.TaskPending && status != model.TaskCompleted && status != model.TaskMissed {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status must be pending, completed or missed")
			return
		}
		filter.Status = status
	}

	tasks, err := ctrl.taskService.ListTasks(studentID, filter)
	if err != nil {
		log.Error("Failed to list tasks", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// Get returns a single task
// GET /api/tasks/:id
func (ctrl *TaskController) Get(c *gin.Context) {
	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid task id")
		return
	}

	task, err := ctrl.taskService.GetTask(studentID, uint(taskID))
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			apperrors.NotFound(c, apperrors.TaskNotFound, "task not found")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// Update partially updates a task
// PATCH /api/tasks/:id
func (ctrl *TaskController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid task id")
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid task details")
		return
	}

	input := service.TaskUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Subject:        req.Subject,
		Topic:          req.Topic,
		EstimatedHours: req.EstimatedHours,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.PlannedDate != nil {
		plannedDate, err := time.Parse("2006-01-02", *req.PlannedDate)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "planned_date must be YYYY-MM-DD")
			return
		}
		input.PlannedDate = &plannedDate
	}

	task, err := ctrl.taskService.UpdateTask(studentID, uint(taskID), input)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			apperrors.NotFound(c, apperrors.TaskNotFound, "task not found")
			return
		}
		log.Error("Failed to update task", err, map[string]interface{}{
			"student_id": studentID,
			"task_id":    taskID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// Summary returns the status breakdown, settling overdue tasks first
// GET /api/tasks/summary
func (ctrl *TaskController) Summary(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	summary, err := ctrl.taskService.Summary(studentID)
	if err != nil {
		log.Error("Failed to build task summary", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "task summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Export downloads the student's tasks as a spreadsheet
// GET /api/tasks/export
func (ctrl *TaskController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	data, err := ctrl.taskService.ExportXLSX(studentID)
	if err != nil {
		log.Error("Failed to export tasks", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.InternalError(c, "failed to export tasks")
		return
	}

	filename := fmt.Sprintf("tasks-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
