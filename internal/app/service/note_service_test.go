package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupNoteServiceTest(t *testing.T) (NoteService, *memoryStorage, *gorm.DB) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	store := newMemoryStorage()
	svc := NewNoteService(repository.NewNoteRepository(testDB), store)
	return svc, store, testDB
}

func TestNoteService_Upload(t *testing.T) {
	svc, store, testDB := setupNoteServiceTest(t)
	student := createTestStudent(t, testDB, "notes@example.com", "notesuser")
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  error
		wantType model.NoteFileType
	}{
		{
			name:     "PDF upload",
			filename: "algebra.pdf",
			data:     []byte("pdf-bytes"),
			wantType: model.NoteFilePDF,
		},
		{
			name:     "Word upload",
			filename: "essay.docx",
			data:     []byte("docx-bytes"),
			wantType: model.NoteFileWord,
		},
		{
			name:     "Image upload",
			filename: "whiteboard.JPG",
			data:     []byte("jpg-bytes"),
			wantType: model.NoteFileImage,
		},
		{
			name:     "Disallowed extension",
			filename: "archive.zip",
			data:     []byte("zip-bytes"),
			wantErr:  ErrInvalidFileType,
		},
		{
			name:     "No extension",
			filename: "README",
			data:     []byte("text"),
			wantErr:  ErrInvalidFileType,
		},
		{
			name:     "Oversized file",
			filename: "huge.pdf",
			data:     bytes.Repeat([]byte("x"), maxNoteSize+1),
			wantErr:  ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := svc.Upload(ctx, student.ID, "Test Note", "desc", tt.filename, tt.data)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, note)
			} else {
				require.NoError(t, err)
				require.NotNil(t, note)
				assert.Equal(t, tt.wantType, note.FileType)
				assert.True(t, strings.HasPrefix(note.FileKey, "notes/"))
				assert.Contains(t, store.objects, note.FileKey)
			}
		})
	}
}

func TestNoteService_UploadKeysAreUnique(t *testing.T) {
	svc, _, testDB := setupNoteServiceTest(t)
	student := createTestStudent(t, testDB, "unique@example.com", "uniqueuser")
	ctx := context.Background()

	first, err := svc.Upload(ctx, student.ID, "First", "", "notes.pdf", []byte("a"))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, student.ID, "Second", "", "notes.pdf", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first.FileKey, second.FileKey)
}

func TestNoteService_List(t *testing.T) {
	svc, _, testDB := setupNoteServiceTest(t)
	student := createTestStudent(t, testDB, "list@example.com", "listuser")
	other := createTestStudent(t, testDB, "other@example.com", "otheruser")
	ctx := context.Background()

	_, err := svc.Upload(ctx, student.ID, "Mine", "", "mine.pdf", []byte("a"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, other.ID, "Theirs", "", "theirs.pdf", []byte("b"))
	require.NoError(t, err)

	views, err := svc.List(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Mine", views[0].Title)
	assert.Contains(t, views[0].FileURL, "https://files.test/notes/")

	empty, err := svc.List(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
