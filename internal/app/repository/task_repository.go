package repository

import (
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

// TaskFilter narrows task listings. Zero values mean "no filter".
type TaskFilter struct {
	PlannedDate *time.Time
	Status      model.TaskStatus
}

type TaskRepository interface {
	Create(task *model.Task) error
	FindByID(studentID, taskID uint) (*model.Task, error)
	FindByStudentID(studentID uint, filter TaskFilter) ([]model.Task, error)
	Update(task *model.Task) error
	MarkMissedBefore(studentID uint, today time.Time) (int64, error)
	CountByStatus(studentID uint) (map[model.TaskStatus]int64, int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *model.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		logger.Error("Failed to create task in database", err, map[string]interface{}{
			"student_id": task.StudentID,
			"title":      task.Title,
		})
		return err
	}
	return nil
}

func (r *taskRepository) FindByID(studentID, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.Where("id = ? AND student_id = ?", taskID, studentID).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) FindByStudentID(studentID uint, filter TaskFilter) ([]model.Task, error) {
	query := r.db.Where("student_id = ?", studentID)

	if filter.PlannedDate != nil {
		query = query.Where("planned_date = ?", filter.PlannedDate.Format("2006-01-02"))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var tasks []model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(task *model.Task) error {
	if err := r.db.Save(task).Error; err != nil {
		logger.Error("Failed to update task in database", err, map[string]interface{}{
			"task_id": task.ID,
		})
		return err
	}
	return nil
}

// MarkMissedBefore flips pending tasks planned before today to missed.
// Called lazily from the summary read, there is no background sweep.
func (r *taskRepository) MarkMissedBefore(studentID uint, today time.Time) (int64, error) {
	res := r.db.Model(&model.Task{}).
		Where("student_id = ? AND status = ? AND planned_date < ?",
			studentID, model.TaskPending, today.Format("2006-01-02")).
		Update("status", model.TaskMissed)
	if res.Error != nil {
		logger.Error("Failed to mark missed tasks in database", res.Error, map[string]interface{}{
			"student_id": studentID,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *taskRepository) CountByStatus(studentID uint) (map[model.TaskStatus]int64, int64, error) {
	type row struct {
		Status model.TaskStatus
		Count  int64
	}

	var rows []row
	err := r.db.Model(&model.Task{}).
		Select("status, count(*) as count").
		Where("student_id = ?", studentID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	counts := make(map[model.TaskStatus]int64, len(rows))
	var total int64
	for _, r := range rows {
		counts[r.Status] = r.Count
		total += r.Count
	}
	return counts, total, nil
}
