package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/bheruji/learnflow-backend/internal/app/service"
	apperrors "github.com/bheruji/learnflow-backend/internal/errors"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type NoteController struct {
	noteService service.NoteService
}

func NewNoteController(noteService service.NoteService) *NoteController {
	return &NoteController{
		noteService: noteService,
	}
}

// Upload stores a note file with its metadata
// POST /api/notes/upload
func (ctrl *NoteController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "title is required")
		return
	}
	description := c.PostForm("description")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "could not read the uploaded file")
		return
	}

	note, err := ctrl.noteService.Upload(c.Request.Context(), studentID, title, description, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "file type not allowed")
		case errors.Is(err, service.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "file must be 10 MB or smaller")
		default:
			log.Error("Failed to upload note", err, map[string]interface{}{
				"student_id": studentID,
			})
			apperrors.InternalError(c, "failed to upload note")
		}
		return
	}

	log.Info("Note uploaded", map[string]interface{}{
		"student_id": studentID,
		"note_id":    note.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "note uploaded",
		"note": gin.H{
			"id":        note.ID,
			"title":     note.Title,
			"file_type": note.FileType,
		},
	})
}

// List returns the student's notes with download URLs
// GET /api/notes/
func (ctrl *NoteController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	notes, err := ctrl.noteService.List(c.Request.Context(), studentID)
	if err != nil {
		log.Error("Failed to list notes", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.InternalError(c, "failed to list notes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"count": len(notes),
	})
}
