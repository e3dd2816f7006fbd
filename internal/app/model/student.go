package model

import (
	"time"
)

// Student is the durable account record. Created only by a successful
// signup verification, mutated by later flows, never deleted here.
type Student struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	FullName     string    `json:"full_name"`
	MobileNo     string    `gorm:"not null" json:"mobile_no"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	IsVerified   bool      `gorm:"default:false" json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`

	Profile *Profile `gorm:"foreignKey:StudentID" json:"profile,omitempty"`
}

func (Student) TableName() string {
	return "students"
}

type Profile struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StudentID   uint      `gorm:"uniqueIndex;not null" json:"student_id"`
	DateOfBirth time.Time `gorm:"type:date;not null" json:"date_of_birth"`
	Gender      string    `gorm:"not null" json:"gender"`
	City        string    `gorm:"not null" json:"city"`
	State       string    `gorm:"not null" json:"state"`
	Country     string    `gorm:"not null" json:"country"`
	// object storage key of the profile photo, e.g. avatars/42.jpg
	PhotoKey  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

type EducationDetail struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	StudentID       uint      `gorm:"uniqueIndex;not null" json:"student_id"`
	CurrentLevel    string    `json:"current_level"` // school / college / employee
	CourseType      string    `json:"course_type"`   // school / graduation / pg / other
	CourseName      string    `json:"course_name"`   // BCA, MCA, 12th Science
	CourseStartYear *int      `json:"course_start_year"`
	CourseEndYear   *int      `json:"course_end_year"`
	CurrentYear     *int      `json:"current_year"`
	InstitutionName string    `json:"institution_name"` // college / school / company
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (EducationDetail) TableName() string {
	return "education_details"
}
