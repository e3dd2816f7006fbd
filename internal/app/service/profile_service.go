package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/storage"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/bheruji/learnflow-backend/pkg/mailer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrPhotoNotFound        = errors.New("profile photo not found")
	ErrInvalidFileType      = errors.New("file type not allowed")
	ErrFileTooLarge         = errors.New("file exceeds the size limit")
)

const (
	maxPhotoSize     = 5 << 20
	photoURLValidity = 600 * time.Second
)

var photoContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type EducationInput struct {
	CurrentLevel    string
	CourseType      string
	CourseName      string
	CourseStartYear *int
	CourseEndYear   *int
	CurrentYear     *int
	InstitutionName string
}

type ProfileInput struct {
	DateOfBirth time.Time
	Gender      string
	City        string
	State       string
	Country     string
	Education   *EducationInput
}

// ProfileView is the combined account, profile and education payload
// served by GET /profile.
type ProfileView struct {
	Student   *model.Student         `json:"student"`
	Profile   *model.Profile         `json:"profile"`
	Education *model.EducationDetail `json:"education,omitempty"`
}

type ProfileService interface {
	GetProfile(studentID uint) (*ProfileView, error)
	CreateProfile(studentID uint, input ProfileInput) (*ProfileView, error)
	UpdateProfile(studentID uint, input ProfileInput) (*ProfileView, error)
	UploadPhoto(ctx context.Context, studentID uint, filename string, data []byte) error
	PhotoURL(ctx context.Context, studentID uint) (string, error)
	RemovePhoto(ctx context.Context, studentID uint) error
	RequestEmailChange(studentID uint, newEmail string) error
	VerifyEmailChange(studentID uint, code string) (*model.Student, error)
}

type profileService struct {
	studentRepo repository.StudentRepository
	profileRepo repository.ProfileRepository
	store       storage.ObjectStorage
	mail        mailer.Sender
	db          *gorm.DB
	otpCfg      config.OTPConfig
}

func NewProfileService(
	studentRepo repository.StudentRepository,
	profileRepo repository.ProfileRepository,
	store storage.ObjectStorage,
	mail mailer.Sender,
	db *gorm.DB,
	otpCfg config.OTPConfig,
) ProfileService {
	return &profileService{
		studentRepo: studentRepo,
		profileRepo: profileRepo,
		store:       store,
		mail:        mail,
		db:          db,
		otpCfg:      otpCfg,
	}
}

func (s *profileService) GetProfile(studentID uint) (*ProfileView, error) {
	logger.Debug("Fetching profile", map[string]interface{}{
		"student_id": studentID,
	})

	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		logger.Error("Failed to fetch student", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	profile, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		logger.Error("Failed to fetch profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	education, err := s.profileRepo.FindEducationByStudentID(studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to fetch education details", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	return &ProfileView{
		Student:   student,
		Profile:   profile,
		Education: education,
	}, nil
}

func (s *profileService) CreateProfile(studentID uint, input ProfileInput) (*ProfileView, error) {
	logger.Info("Creating profile", map[string]interface{}{
		"student_id": studentID,
	})

	if _, err := s.studentRepo.FindByID(studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	existing, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Profile creation failed: already exists", map[string]interface{}{
			"student_id": studentID,
		})
		return nil, ErrProfileAlreadyExists
	}

	profile := &model.Profile{
		StudentID:   studentID,
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		City:        input.City,
		State:       input.State,
		Country:     input.Country,
	}
	if err := s.profileRepo.Save(profile); err != nil {
		logger.Error("Failed to create profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	if input.Education != nil {
		education := &model.EducationDetail{
			StudentID:       studentID,
			CurrentLevel:    input.Education.CurrentLevel,
			CourseType:      input.Education.CourseType,
			CourseName:      input.Education.CourseName,
			CourseStartYear: input.Education.CourseStartYear,
			CourseEndYear:   input.Education.CourseEndYear,
			CurrentYear:     input.Education.CurrentYear,
			InstitutionName: input.Education.InstitutionName,
		}
		if err := s.profileRepo.SaveEducation(education); err != nil {
			logger.Error("Failed to create education details", err, map[string]interface{}{
				"student_id": studentID,
			})
			return nil, err
		}
	}

	logger.Info("Profile created", map[string]interface{}{
		"student_id": studentID,
	})
	return s.GetProfile(studentID)
}

func (s *profileService) UpdateProfile(studentID uint, input ProfileInput) (*ProfileView, error) {
	logger.Info("Updating profile", map[string]interface{}{
		"student_id": studentID,
	})

	profile, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		logger.Error("Failed to fetch profile for update", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	if !input.DateOfBirth.IsZero() {
		profile.DateOfBirth = input.DateOfBirth
	}
	if input.Gender != "" {
		profile.Gender = input.Gender
	}
	if input.City != "" {
		profile.City = input.City
	}
	if input.State != "" {
		profile.State = input.State
	}
	if input.Country != "" {
		profile.Country = input.Country
	}
	if err := s.profileRepo.Save(profile); err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	if input.Education != nil {
		education, err := s.profileRepo.FindEducationByStudentID(studentID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Failed to fetch education details for update", err, map[string]interface{}{
					"student_id": studentID,
				})
				return nil, err
			}
			education = &model.EducationDetail{StudentID: studentID}
		}
		in := input.Education
		if in.CurrentLevel != "" {
			education.CurrentLevel = in.CurrentLevel
		}
		if in.CourseType != "" {
			education.CourseType = in.CourseType
		}
		if in.CourseName != "" {
			education.CourseName = in.CourseName
		}
		if in.CourseStartYear != nil {
			education.CourseStartYear = in.CourseStartYear
		}
		if in.CourseEndYear != nil {
			education.CourseEndYear = in.CourseEndYear
		}
		if in.CurrentYear != nil {
			education.CurrentYear = in.CurrentYear
		}
		if in.InstitutionName != "" {
			education.InstitutionName = in.InstitutionName
		}
		if err := s.profileRepo.SaveEducation(education); err != nil {
			logger.Error("Failed to update education details", err, map[string]interface{}{
				"student_id": studentID,
			})
			return nil, err
		}
	}

	logger.Info("Profile updated", map[string]interface{}{
		"student_id": studentID,
	})
	return s.GetProfile(studentID)
}

// UploadPhoto stores the photo under a per-student key, replacing any
// previous photo.
func (s *profileService) UploadPhoto(ctx context.Context, studentID uint, filename string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := photoContentTypes[ext]
	if !ok {
		logger.Warn("Photo upload rejected: bad extension", map[string]interface{}{
			"student_id": studentID,
			"extension":  ext,
		})
		return ErrInvalidFileType
	}
	if len(data) > maxPhotoSize {
		logger.Warn("Photo upload rejected: too large", map[string]interface{}{
			"student_id": studentID,
			"size":       len(data),
		})
		return ErrFileTooLarge
	}

	profile, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	key := fmt.Sprintf("avatars/%d.jpg", studentID)
	if err := s.store.Upload(ctx, key, contentType, data); err != nil {
		logger.Error("Failed to upload profile photo", err, map[string]interface{}{
			"student_id": studentID,
			"key":        key,
		})
		return err
	}

	profile.PhotoKey = key
	if err := s.profileRepo.Save(profile); err != nil {
		logger.Error("Failed to record photo key", err, map[string]interface{}{
			"student_id": studentID,
		})
		return err
	}

	logger.Info("Profile photo uploaded", map[string]interface{}{
		"student_id": studentID,
		"key":        key,
	})
	return nil
}

func (s *profileService) PhotoURL(ctx context.Context, studentID uint) (string, error) {
	profile, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	if profile.PhotoKey == "" {
		return "", ErrPhotoNotFound
	}

	url, err := s.store.SignedURL(ctx, profile.PhotoKey, photoURLValidity)
	if err != nil {
		logger.Error("Failed to sign photo URL", err, map[string]interface{}{
			"student_id": studentID,
			"key":        profile.PhotoKey,
		})
		return "", err
	}
	return url, nil
}

func (s *profileService) RemovePhoto(ctx context.Context, studentID uint) error {
	profile, err := s.profileRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	if profile.PhotoKey == "" {
		return ErrPhotoNotFound
	}

	if err := s.store.Remove(ctx, profile.PhotoKey); err != nil {
		logger.Error("Failed to remove profile photo", err, map[string]interface{}{
			"student_id": studentID,
			"key":        profile.PhotoKey,
		})
		return err
	}

	profile.PhotoKey = ""
	if err := s.profileRepo.Save(profile); err != nil {
		logger.Error("Failed to clear photo key", err, map[string]interface{}{
			"student_id": studentID,
		})
		return err
	}

	logger.Info("Profile photo removed", map[string]interface{}{
		"student_id": studentID,
	})
	return nil
}

// RequestEmailChange issues an OTP to the new address. The account
// keeps its current email until the code is verified.
func (s *profileService) RequestEmailChange(studentID uint, newEmail string) error {
	logger.Info("Email change requested", map[string]interface{}{
		"student_id": studentID,
	})

	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if student.Email == newEmail {
		return ErrEmailAlreadyExists
	}

	taken, err := s.studentRepo.FindByEmail(newEmail)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check new email", err, map[string]interface{}{
			"student_id": studentID,
		})
		return err
	}
	if taken != nil {
		logger.Warn("Email change failed: address in use", map[string]interface{}{
			"student_id": studentID,
		})
		return ErrEmailAlreadyExists
	}

	code, err := issueOTPCode(s.db, s.otpCfg.CodeLength, func(tx *gorm.DB) (livedUntil *time.Time, deleteStale func() error, create func(codeHash string) error, err error) {
		var pending model.EmailChangeRequest
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ?", studentID).First(&pending).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil, nil, findErr
		}
		if findErr == nil {
			livedUntil = &pending.ExpiresAt
		}
		deleteStale = func() error {
			return tx.Where("student_id = ?", studentID).Delete(&model.EmailChangeRequest{}).Error
		}
		create = func(codeHash string) error {
			return tx.Create(&model.EmailChangeRequest{
				StudentID: studentID,
				NewEmail:  newEmail,
				CodeHash:  codeHash,
				ExpiresAt: time.Now().Add(s.otpCfg.ResetExpiry),
			}).Error
		}
		return livedUntil, deleteStale, create, nil
	})
	if err != nil {
		return err
	}

	dispatchOTPCode(s.mail, newEmail, code)

	logger.Info("Email change OTP issued", map[string]interface{}{
		"student_id": studentID,
	})
	return nil
}

// VerifyEmailChange checks the code and swaps the account email inside
// one transaction with the pending row locked.
func (s *profileService) VerifyEmailChange(studentID uint, code string) (*model.Student, error) {
	logger.Info("Email change verification attempt", map[string]interface{}{
		"student_id": studentID,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during email change, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"student_id": studentID,
			})
		}
	}()

	var pending model.EmailChangeRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", studentID).First(&pending).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Email change failed: no pending request", map[string]interface{}{
				"student_id": studentID,
			})
			return nil, ErrOTPInvalidOrExpired
		}
		logger.Error("Failed to fetch pending email change", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	if err := checkOTPRecord(tx, &verificationRecord{
		codeHash: pending.CodeHash,
		expired:  pending.IsExpired(),
		attempts: pending.Attempts,
		bumpAttempts: func() error {
			return tx.Model(&pending).Update("attempts", pending.Attempts+1).Error
		},
		remove: func() error {
			return tx.Delete(&pending).Error
		},
	}, code, pending.NewEmail, s.otpCfg.MaxAttempts); err != nil {
		return nil, err
	}

	// The address may have been claimed while the code was pending
	var count int64
	if err := tx.Model(&model.Student{}).Where("email = ?", pending.NewEmail).Count(&count).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if count > 0 {
		if err := tx.Delete(&pending).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		logger.Warn("Email change failed: address claimed while pending", map[string]interface{}{
			"student_id": studentID,
		})
		return nil, ErrEmailAlreadyExists
	}

	// The OTP went to the new address, so the swap also proves ownership.
	if err := tx.Model(&model.Student{}).Where("id = ?", studentID).
		Updates(map[string]interface{}{
			"email":       pending.NewEmail,
			"is_verified": true,
		}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update email", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}
	if err := tx.Delete(&pending).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit email change", err, map[string]interface{}{
			"student_id": studentID,
		})
		return nil, err
	}

	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		return nil, err
	}

	logger.Info("Email changed", map[string]interface{}{
		"student_id": studentID,
	})
	return student, nil
}
