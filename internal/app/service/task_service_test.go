package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupTaskServiceTest(t *testing.T) (TaskService, *gorm.DB) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	svc := NewTaskService(repository.NewTaskRepository(testDB))
	return svc, testDB
}

func taskInput(title string, plannedDate time.Time) TaskInput {
	return TaskInput{
		Title:       title,
		Subject:     "Mathematics",
		Topic:       "Calculus",
		PlannedDate: plannedDate,
	}
}

func TestTaskService_CreateAndGet(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "tasks@example.com", "tasksuser")

	today := time.Now().Truncate(24 * time.Hour)
	task, err := svc.CreateTask(student.ID, taskInput("Integrals worksheet", today))
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.IsCarriedForward)

	fetched, err := svc.GetTask(student.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, fetched.ID)

	t.Run("Unknown task", func(t *testing.T) {
		_, err := svc.GetTask(student.ID, 9999)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("Other student's task is invisible", func(t *testing.T) {
		other := createTestStudent(t, testDB, "othertasks@example.com", "othertasks")
		_, err := svc.GetTask(other.ID, task.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_ListFilters(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "filter@example.com", "filteruser")

	today := time.Now().Truncate(24 * time.Hour)
	tomorrow := today.AddDate(0, 0, 1)

	_, err := svc.CreateTask(student.ID, taskInput("Today A", today))
	require.NoError(t, err)
	_, err = svc.CreateTask(student.ID, taskInput("Today B", today))
	require.NoError(t, err)
	created, err := svc.CreateTask(student.ID, taskInput("Tomorrow", tomorrow))
	require.NoError(t, err)

	status := model.TaskCompleted
	_, err = svc.UpdateTask(student.ID, created.ID, TaskUpdateInput{Status: &status})
	require.NoError(t, err)

	byDate, err := svc.ListTasks(student.ID, repository.TaskFilter{PlannedDate: &today})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byStatus, err := svc.ListTasks(student.ID, repository.TaskFilter{Status: model.TaskCompleted})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Tomorrow", byStatus[0].Title)

	all, err := svc.ListTasks(student.ID, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskService_Update(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "uptask@example.com", "uptaskuser")

	today := time.Now().Truncate(24 * time.Hour)
	task, err := svc.CreateTask(student.ID, taskInput("Revise notes", today))
	require.NoError(t, err)

	newTitle := "Revise lecture notes"
	hours := 2.5
	status := model.TaskCompleted
	updated, err := svc.UpdateTask(student.ID, task.ID, TaskUpdateInput{
		Title:          &newTitle,
		EstimatedHours: &hours,
		Status:         &status,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, model.TaskCompleted, updated.Status)
	require.NotNil(t, updated.EstimatedHours)
	assert.Equal(t, 2.5, *updated.EstimatedHours)
	assert.Equal(t, "Mathematics", updated.Subject)

	t.Run("Unknown task", func(t *testing.T) {
		_, err := svc.UpdateTask(student.ID, 9999, TaskUpdateInput{Title: &newTitle})
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_RescheduleMissedCarriesForward(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "carry@example.com", "carryuser")

	yesterday := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	task, err := svc.CreateTask(student.ID, taskInput("Overdue reading", yesterday))
	require.NoError(t, err)

	// Summary read settles the overdue task into missed
	_, err = svc.Summary(student.ID)
	require.NoError(t, err)
	settled, err := svc.GetTask(student.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskMissed, settled.Status)

	tomorrow := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	revived, err := svc.UpdateTask(student.ID, task.ID, TaskUpdateInput{PlannedDate: &tomorrow})
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, revived.Status)
	assert.True(t, revived.IsCarriedForward)
}

func TestTaskService_Summary(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "summary@example.com", "summaryuser")

	today := time.Now().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	t.Run("Empty summary", func(t *testing.T) {
		summary, err := svc.Summary(student.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.Total)
		assert.Equal(t, float64(0), summary.CompletionRate)
	})

	_, err := svc.CreateTask(student.ID, taskInput("Pending today", today))
	require.NoError(t, err)
	overdue, err := svc.CreateTask(student.ID, taskInput("Overdue", yesterday))
	require.NoError(t, err)
	done, err := svc.CreateTask(student.ID, taskInput("Done", today))
	require.NoError(t, err)
	status := model.TaskCompleted
	_, err = svc.UpdateTask(student.ID, done.ID, TaskUpdateInput{Status: &status})
	require.NoError(t, err)

	summary, err := svc.Summary(student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(1), summary.Pending)
	assert.Equal(t, int64(1), summary.Completed)
	assert.Equal(t, int64(1), summary.Missed)
	assert.InDelta(t, 33.33, summary.CompletionRate, 0.01)

	// The rollover is idempotent
	again, err := svc.Summary(student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Missed)

	missed, err := svc.GetTask(student.ID, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskMissed, missed.Status)
}

func TestTaskService_ExportXLSX(t *testing.T) {
	svc, testDB := setupTaskServiceTest(t)
	student := createTestStudent(t, testDB, "export@example.com", "exportuser")

	today := time.Now().Truncate(24 * time.Hour)
	hours := 1.5
	_, err := svc.CreateTask(student.ID, TaskInput{
		Title:          "Export me",
		Subject:        "Physics",
		Topic:          "Optics",
		Priority:       model.PriorityHigh,
		PlannedDate:    today,
		EstimatedHours: &hours,
	})
	require.NoError(t, err)

	data, err := svc.ExportXLSX(student.ID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, "Export me", rows[1][0])
	assert.Equal(t, "Physics", rows[1][1])
	assert.Equal(t, "high", rows[1][4])
}
