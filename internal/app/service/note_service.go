package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/storage"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	maxNoteSize     = 10 << 20
	noteURLValidity = time.Hour
)

// noteFileKinds maps allowed upload extensions to the stored file type
// and MIME type.
var noteFileKinds = map[string]struct {
	fileType    model.NoteFileType
	contentType string
}{
	".pdf":  {model.NoteFilePDF, "application/pdf"},
	".doc":  {model.NoteFileWord, "application/msword"},
	".docx": {model.NoteFileWord, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".ppt":  {model.NoteFilePPT, "application/vnd.ms-powerpoint"},
	".pptx": {model.NoteFilePPT, "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	".jpg":  {model.NoteFileImage, "image/jpeg"},
	".jpeg": {model.NoteFileImage, "image/jpeg"},
	".png":  {model.NoteFileImage, "image/png"},
}

// NoteView is a note with a time-limited download URL.
type NoteView struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	FileType    model.NoteFileType `json:"file_type"`
	FileURL     string             `json:"file_url"`
	CreatedAt   time.Time          `json:"created_at"`
}

type NoteService interface {
	Upload(ctx context.Context, studentID uint, title, description, filename string, data []byte) (*model.Note, error)
	List(ctx context.Context, studentID uint) ([]NoteView, error)
}

type noteService struct {
	noteRepo repository.NoteRepository
	store    storage.ObjectStorage
}

func NewNoteService(noteRepo repository.NoteRepository, store storage.ObjectStorage) NoteService {
	return &noteService{
		noteRepo: noteRepo,
		store:    store,
	}
}

func (s *noteService) Upload(ctx context.Context, studentID uint, title, description, filename string, data []byte) (*model.Note, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := noteFileKinds[ext]
	if !ok {
		logger.Warn("Note upload rejected: bad extension", map[string]interface{}{
			"student_id": studentID,
			"extension":  ext,
		})
		return nil, ErrInvalidFileType
	}
	if len(data) > maxNoteSize {
		logger.Warn("Note upload rejected: too large", map[string]interface{}{
			"student_id": studentID,
			"size":       len(data),
		})
		return nil, ErrFileTooLarge
	}

	key := fmt.Sprintf("notes/%d/%s%s", studentID, uuid.New().String(), ext)
	if err := s.store.Upload(ctx, key, kind.contentType, data); err != nil {
		logger.Error("Failed to upload note file", err, map[string]interface{}{
			"student_id": studentID,
			"key":        key,
		})
		return nil, err
	}

	note := &model.Note{
		StudentID:   studentID,
		Title:       title,
		Description: description,
		FileKey:     key,
		FileType:    kind.fileType,
	}
	if err := s.noteRepo.Create(note); err != nil {
		logger.Error("Failed to create note record", err, map[string]interface{}{
			"student_id": studentID,
			"key":        key,
		})
		// The stored object is orphaned without its record
		if removeErr := s.store.Remove(ctx, key); removeErr != nil {
			logger.Error("Failed to remove orphaned note file", removeErr, map[string]interface{}{
				"key": key,
			})
		}
		return nil, err
	}

	logger.Info("Note uploaded", map[string]interface{}{
		"student_id": studentID,
		"note_id":    note.ID,
		"file_type":  note.FileType,
	})
	return note, nil
}

func (s *noteService) List(ctx context.Context, studentID uint) ([]NoteView, error) {
	logger.Debug("Listing notes", map[string]interface{}{
		"student_id": studentID,
	})

	notes, err := s.noteRepo.FindByStudentID(studentID)
	if err != nil {
		logger.Error("Failed to list notes", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	views := make([]NoteView, 0, len(notes))
	for _, note := range notes {
		url, err := s.store.SignedURL(ctx, note.FileKey, noteURLValidity)
		if err != nil {
			logger.Error("Failed to sign note URL", err, map[string]interface{}{
				"note_id": note.ID,
				"key":     note.FileKey,
			})
			return nil, err
		}
		views = append(views, NoteView{
			ID:          note.ID,
			Title:       note.Title,
			Description: note.Description,
			FileType:    note.FileType,
			FileURL:     url,
			CreatedAt:   note.CreatedAt,
		})
	}
	return views, nil
}
