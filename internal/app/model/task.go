package model

import (
	"time"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskMissed    TaskStatus = "missed"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

type Task struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	StudentID   uint         `gorm:"not null;index" json:"student_id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description"`
	Subject     string       `gorm:"not null" json:"subject"`
	Topic       string       `json:"topic"`
	Status      TaskStatus   `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	PlannedDate time.Time    `gorm:"type:date;not null" json:"planned_date"`
	// estimated effort in hours
	EstimatedHours   *float64  `json:"estimated_hours"`
	IsCarriedForward bool      `gorm:"default:false" json:"is_carried_forward"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}
