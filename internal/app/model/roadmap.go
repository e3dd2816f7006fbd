package model

import (
	"time"

	"github.com/lib/pq"
)

type RoadmapType string

const (
	RoadmapStatic RoadmapType = "static"
	RoadmapAI     RoadmapType = "ai"
)

type Roadmap struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Level       string         `json:"level"`
	RoadmapType RoadmapType    `gorm:"type:varchar(20);not null;default:'static'" json:"roadmap_type"`
	CreatedByAI bool           `gorm:"default:false" json:"created_by_ai"`
	Tags        pq.StringArray `gorm:"type:text" json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`

	Steps []Step `gorm:"foreignKey:RoadmapID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

func (Roadmap) TableName() string {
	return "roadmaps"
}

type Step struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	RoadmapID   uint   `gorm:"not null;index" json:"roadmap_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	StepOrder   int    `json:"step_order"`

	Topics []Topic `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

func (Step) TableName() string {
	return "steps"
}

type Topic struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	StepID      uint   `gorm:"not null;index" json:"step_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	TopicOrder  int    `json:"topic_order"`
}

func (Topic) TableName() string {
	return "topics"
}

// StudentRoadmap is a student's enrolment in a roadmap
type StudentRoadmap struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	StudentID          uint       `gorm:"not null;index:idx_student_roadmap,unique" json:"student_id"`
	RoadmapID          uint       `gorm:"not null;index:idx_student_roadmap,unique" json:"roadmap_id"`
	ProgressPercentage int        `gorm:"default:0" json:"progress_percentage"`
	Status             string     `gorm:"type:varchar(20);default:'active'" json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	Roadmap *Roadmap `gorm:"foreignKey:RoadmapID" json:"roadmap,omitempty"`
}

func (StudentRoadmap) TableName() string {
	return "student_roadmaps"
}

// TopicProgress tracks per-enrolment topic completion
type TopicProgress struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	StudentRoadmapID uint       `gorm:"not null;index:idx_enrolment_topic,unique" json:"student_roadmap_id"`
	TopicID          uint       `gorm:"not null;index:idx_enrolment_topic,unique" json:"topic_id"`
	IsCompleted      bool       `gorm:"default:false" json:"is_completed"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func (TopicProgress) TableName() string {
	return "topic_progress"
}
