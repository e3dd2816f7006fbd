package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/bheruji/learnflow-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryStorage is an in-memory ObjectStorage for tests.
type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(_ context.Context, key, _ string, data []byte) error {
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("no such object: %s", key)
	}
	return "https://files.test/" + key + "?signature=test", nil
}

func (m *memoryStorage) Remove(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func setupProfileServiceTest(t *testing.T) (ProfileService, *memoryStorage, *captureMailer, *gorm.DB) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	store := newMemoryStorage()
	mail := newCaptureMailer()
	svc := NewProfileService(
		repository.NewStudentRepository(testDB),
		repository.NewProfileRepository(testDB),
		store,
		mail,
		testDB,
		testOTPConfig(),
	)
	return svc, store, mail, testDB
}

func createTestStudent(t *testing.T, testDB *gorm.DB, email, username string) *model.Student {
	t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)
	student := &model.Student{
		Email:        email,
		Username:     username,
		FullName:     "Test Student",
		MobileNo:     "9876543210",
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
	}
	require.NoError(t, testDB.Create(student).Error)
	return student
}

func testProfileInput() ProfileInput {
	startYear := 2022
	endYear := 2025
	return ProfileInput{
		DateOfBirth: time.Date(2003, 5, 14, 0, 0, 0, 0, time.UTC),
		Gender:      "male",
		City:        "Pune",
		State:       "Maharashtra",
		Country:     "India",
		Education: &EducationInput{
			CurrentLevel:    "college",
			CourseType:      "graduation",
			CourseName:      "BCA",
			CourseStartYear: &startYear,
			CourseEndYear:   &endYear,
			InstitutionName: "Pune University",
		},
	}
}

func TestProfileService_CreateAndGet(t *testing.T) {
	svc, _, _, testDB := setupProfileServiceTest(t)
	student := createTestStudent(t, testDB, "profile@example.com", "profileuser")

	t.Run("Get before create", func(t *testing.T) {
		_, err := svc.GetProfile(student.ID)
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("Create", func(t *testing.T) {
		view, err := svc.CreateProfile(student.ID, testProfileInput())
		require.NoError(t, err)
		require.NotNil(t, view.Profile)
		require.NotNil(t, view.Education)
		assert.Equal(t, "Pune", view.Profile.City)
		assert.Equal(t, "BCA", view.Education.CourseName)
		assert.Equal(t, student.ID, view.Profile.StudentID)
	})

	t.Run("Duplicate create", func(t *testing.T) {
		_, err := svc.CreateProfile(student.ID, testProfileInput())
		assert.ErrorIs(t, err, ErrProfileAlreadyExists)
	})

	t.Run("Unknown student", func(t *testing.T) {
		_, err := svc.CreateProfile(9999, testProfileInput())
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}

func TestProfileService_Update(t *testing.T) {
	svc, _, _, testDB := setupProfileServiceTest(t)
	student := createTestStudent(t, testDB, "update@example.com", "updateuser")

	t.Run("Update without profile", func(t *testing.T) {
		_, err := svc.UpdateProfile(student.ID, ProfileInput{City: "Mumbai"})
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	_, err := svc.CreateProfile(student.ID, testProfileInput())
	require.NoError(t, err)

	t.Run("Partial update keeps unset fields", func(t *testing.T) {
		currentYear := 3
		view, err := svc.UpdateProfile(student.ID, ProfileInput{
			City: "Mumbai",
			Education: &EducationInput{
				CurrentYear: &currentYear,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Mumbai", view.Profile.City)
		assert.Equal(t, "Maharashtra", view.Profile.State)
		assert.Equal(t, "BCA", view.Education.CourseName)
		require.NotNil(t, view.Education.CurrentYear)
		assert.Equal(t, 3, *view.Education.CurrentYear)
	})
}

func TestProfileService_Photo(t *testing.T) {
	svc, store, _, testDB := setupProfileServiceTest(t)
	student := createTestStudent(t, testDB, "photo@example.com", "photouser")
	_, err := svc.CreateProfile(student.ID, testProfileInput())
	require.NoError(t, err)

	ctx := context.Background()
	photoKey := fmt.Sprintf("avatars/%d.jpg", student.ID)

	t.Run("Rejects bad extension", func(t *testing.T) {
		err := svc.UploadPhoto(ctx, student.ID, "avatar.gif", []byte("gif-bytes"))
		assert.ErrorIs(t, err, ErrInvalidFileType)
	})

	t.Run("Rejects oversized file", func(t *testing.T) {
		err := svc.UploadPhoto(ctx, student.ID, "avatar.jpg", bytes.Repeat([]byte("x"), maxPhotoSize+1))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("URL before upload", func(t *testing.T) {
		_, err := svc.PhotoURL(ctx, student.ID)
		assert.ErrorIs(t, err, ErrPhotoNotFound)
	})

	t.Run("Upload and fetch URL", func(t *testing.T) {
		require.NoError(t, svc.UploadPhoto(ctx, student.ID, "avatar.png", []byte("png-bytes")))
		assert.Contains(t, store.objects, photoKey)

		url, err := svc.PhotoURL(ctx, student.ID)
		require.NoError(t, err)
		assert.Contains(t, url, photoKey)
	})

	t.Run("Replace overwrites the same key", func(t *testing.T) {
		require.NoError(t, svc.UploadPhoto(ctx, student.ID, "newavatar.jpg", []byte("jpg-bytes")))
		assert.Len(t, store.objects, 1)
		assert.Equal(t, []byte("jpg-bytes"), store.objects[photoKey])
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, svc.RemovePhoto(ctx, student.ID))
		assert.NotContains(t, store.objects, photoKey)

		_, err := svc.PhotoURL(ctx, student.ID)
		assert.ErrorIs(t, err, ErrPhotoNotFound)

		err = svc.RemovePhoto(ctx, student.ID)
		assert.ErrorIs(t, err, ErrPhotoNotFound)
	})
}

func TestProfileService_EmailChange(t *testing.T) {
	svc, _, mail, testDB := setupProfileServiceTest(t)
	student := createTestStudent(t, testDB, "old@example.com", "changeuser")
	createTestStudent(t, testDB, "taken@example.com", "otheruser")

	t.Run("Same address is rejected", func(t *testing.T) {
		err := svc.RequestEmailChange(student.ID, "old@example.com")
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("Taken address is rejected", func(t *testing.T) {
		err := svc.RequestEmailChange(student.ID, "taken@example.com")
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	require.NoError(t, svc.RequestEmailChange(student.ID, "new@example.com"))
	code := mail.waitForCode(t)

	t.Run("Pending request is rate limited", func(t *testing.T) {
		err := svc.RequestEmailChange(student.ID, "new@example.com")
		var pendingErr *OTPPendingError
		require.ErrorAs(t, err, &pendingErr)
		assert.Greater(t, pendingErr.RetryAfter, 0)
	})

	t.Run("Wrong code counts an attempt", func(t *testing.T) {
		_, err := svc.VerifyEmailChange(student.ID, "000000")
		var invalidErr *InvalidOTPError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, 4, invalidErr.AttemptsLeft)
	})

	t.Run("Correct code swaps the address", func(t *testing.T) {
		updated, err := svc.VerifyEmailChange(student.ID, code)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", updated.Email)
		assert.True(t, updated.IsVerified)
	})

	t.Run("Request without pending record", func(t *testing.T) {
		_, err := svc.VerifyEmailChange(student.ID, code)
		assert.ErrorIs(t, err, ErrOTPInvalidOrExpired)
	})
}

func TestProfileService_EmailChange_MarksAddressVerified(t *testing.T) {
	svc, _, mail, testDB := setupProfileServiceTest(t)
	student := createTestStudent(t, testDB, "unconfirmed@example.com", "unconfirmed")
	require.NoError(t, testDB.Model(student).Update("is_verified", false).Error)

	require.NoError(t, svc.RequestEmailChange(student.ID, "confirmed@example.com"))
	code := mail.waitForCode(t)

	// The code was delivered to the new address, so a successful swap
	// doubles as verification of it.
	updated, err := svc.VerifyEmailChange(student.ID, code)
	require.NoError(t, err)
	assert.Equal(t, "confirmed@example.com", updated.Email)
	assert.True(t, updated.IsVerified)
}
