package model

import (
	"time"
)

type NoteFileType string

const (
	NoteFilePDF   NoteFileType = "pdf"
	NoteFileWord  NoteFileType = "word"
	NoteFilePPT   NoteFileType = "ppt"
	NoteFileImage NoteFileType = "image"
)

type Note struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	StudentID   uint   `gorm:"not null;index" json:"student_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	// object storage key, e.g. notes/42/6f1c....pdf
	FileKey   string       `gorm:"not null" json:"-"`
	FileType  NoteFileType `gorm:"type:varchar(20);not null" json:"file_type"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Note) TableName() string {
	return "notes"
}
