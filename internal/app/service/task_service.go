package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskInput struct {
	Title          string
	Description    string
	Subject        string
	Topic          string
	Priority       model.TaskPriority
	PlannedDate    time.Time
	EstimatedHours *float64
}

// TaskUpdateInput carries partial updates. Nil pointers leave the
// field untouched.
type TaskUpdateInput struct {
	Title          *string
	Description    *string
	Subject        *string
	Topic          *string
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	PlannedDate    *time.Time
	EstimatedHours *float64
}

// TaskSummary is the per-student status breakdown. Reading it settles
// overdue pending tasks into missed first.
type TaskSummary struct {
	Total          int64   `json:"total"`
	Pending        int64   `json:"pending"`
	Completed      int64   `json:"completed"`
	Missed         int64   `json:"missed"`
	CompletionRate float64 `json:"completion_rate"`
}

type TaskService interface {
	CreateTask(studentID uint, input TaskInput) (*model.Task, error)
	GetTask(studentID, taskID uint) (*model.Task, error)
	ListTasks(studentID uint, filter repository.TaskFilter) ([]model.Task, error)
	UpdateTask(studentID, taskID uint, input TaskUpdateInput) (*model.Task, error)
	Summary(studentID uint) (*TaskSummary, error)
	ExportXLSX(studentID uint) ([]byte, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
}

func NewTaskService(taskRepo repository.TaskRepository) TaskService {
	return &taskService{taskRepo: taskRepo}
}

func (s *taskService) CreateTask(studentID uint, input TaskInput) (*model.Task, error) {
	logger.Info("Creating task", map[string]interface{}{
		"student_id": studentID,
		"title":      input.Title,
	})

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := &model.Task{
		StudentID:      studentID,
		Title:          input.Title,
		Description:    input.Description,
		Subject:        input.Subject,
		Topic:          input.Topic,
		Status:         model.TaskPending,
		Priority:       priority,
		PlannedDate:    input.PlannedDate,
		EstimatedHours: input.EstimatedHours,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, err
	}

	logger.Info("Task created", map[string]interface{}{
		"student_id": studentID,
		"task_id":    task.ID,
	})
	return task, nil
}

func (s *taskService) GetTask(studentID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(studentID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		logger.Error("Failed to fetch task", err, map[string]interface{}{
			"student_id": studentID,
			"task_id":    taskID,
		})
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListTasks(studentID uint, filter repository.TaskFilter) ([]model.Task, error) {
	logger.Debug("Listing tasks", map[string]interface{}{
		"student_id": studentID,
	})
	return s.taskRepo.FindByStudentID(studentID, filter)
}

func (s *taskService) UpdateTask(studentID, taskID uint, input TaskUpdateInput) (*model.Task, error) {
	logger.Info("Updating task", map[string]interface{}{
		"student_id": studentID,
		"task_id":    taskID,
	})

	task, err := s.taskRepo.FindByID(studentID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		logger.Error("Failed to fetch task for update", err, map[string]interface{}{
			"student_id": studentID,
			"task_id":    taskID,
		})
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Subject != nil {
		task.Subject = *input.Subject
	}
	if input.Topic != nil {
		task.Topic = *input.Topic
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = input.EstimatedHours
	}
	if input.PlannedDate != nil {
		// Rescheduling a missed task revives it as carried forward
		if task.Status == model.TaskMissed && input.PlannedDate.After(task.PlannedDate) {
			task.Status = model.TaskPending
			task.IsCarriedForward = true
		}
		task.PlannedDate = *input.PlannedDate
	}
	if input.Status != nil {
		task.Status = *input.Status
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, err
	}

	logger.Info("Task updated", map[string]interface{}{
		"student_id": studentID,
		"task_id":    taskID,
		"status":     task.Status,
	})
	return task, nil
}

// Summary settles overdue pending tasks into missed, then returns the
// status breakdown.
func (s *taskService) Summary(studentID uint) (*TaskSummary, error) {
	today := time.Now().Truncate(24 * time.Hour)
	rolled, err := s.taskRepo.MarkMissedBefore(studentID, today)
	if err != nil {
		return nil, err
	}
	if rolled > 0 {
		logger.Info("Rolled overdue tasks to missed", map[string]interface{}{
			"student_id": studentID,
			"count":      rolled,
		})
	}

	counts, total, err := s.taskRepo.CountByStatus(studentID)
	if err != nil {
		logger.Error("Failed to count tasks", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	summary := &TaskSummary{
		Total:     total,
		Pending:   counts[model.TaskPending],
		Completed: counts[model.TaskCompleted],
		Missed:    counts[model.TaskMissed],
	}
	if total > 0 {
		summary.CompletionRate = float64(summary.Completed) / float64(total) * 100
	}
	return summary, nil
}

// ExportXLSX renders the student's tasks as a spreadsheet.
func (s *taskService) ExportXLSX(studentID uint) ([]byte, error) {
	logger.Info("Exporting tasks to XLSX", map[string]interface{}{
		"student_id": studentID,
	})

	tasks, err := s.taskRepo.FindByStudentID(studentID, repository.TaskFilter{})
	if err != nil {
		logger.Error("Failed to fetch tasks for export", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Title", "Subject", "Topic", "Status", "Priority", "Planned Date", "Estimated Hours", "Carried Forward", "Description"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, task := range tasks {
		hours := ""
		if task.EstimatedHours != nil {
			hours = fmt.Sprintf("%.1f", *task.EstimatedHours)
		}
		values := []interface{}{
			task.Title,
			task.Subject,
			task.Topic,
			string(task.Status),
			string(task.Priority),
			task.PlannedDate.Format("2006-01-02"),
			hours,
			task.IsCarriedForward,
			task.Description,
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		logger.Error("Failed to render XLSX", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}
	return buf.Bytes(), nil
}
