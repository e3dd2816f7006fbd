package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/bheruji/learnflow-backend/pkg/mailer"
	"github.com/bheruji/learnflow-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrStudentNotFound       = errors.New("student not found")
	ErrOTPInvalidOrExpired   = errors.New("invalid or expired OTP")
	ErrOTPExpired            = errors.New("OTP has expired")
	ErrOTPTooManyAttempts    = errors.New("too many incorrect attempts")
)

// OTPPendingError is returned when a live OTP already exists for the
// address and purpose. RetryAfter is the remaining validity in seconds.
type OTPPendingError struct {
	RetryAfter int
}

func (e *OTPPendingError) Error() string {
	return fmt.Sprintf("an OTP was already sent, retry after %d seconds", e.RetryAfter)
}

// InvalidOTPError is returned on a hash mismatch while attempts remain.
type InvalidOTPError struct {
	AttemptsLeft int
}

func (e *InvalidOTPError) Error() string {
	return fmt.Sprintf("incorrect OTP, %d attempts remaining", e.AttemptsLeft)
}

type SignUpInput struct {
	FullName string
	Username string
	Email    string
	MobileNo string
	Password string
}

type LoginResult struct {
	AccessToken      string
	ProfileCompleted bool
}

type AuthService interface {
	SignUp(input SignUpInput) error
	VerifySignUp(email, code string) (*model.Student, error)
	Login(email, password string) (*LoginResult, error)
	ForgotPassword(email string) error
	ResetPassword(email, code, newPassword string) error
}

type authService struct {
	studentRepo  repository.StudentRepository
	profileRepo  repository.ProfileRepository
	mail         mailer.Sender
	db           *gorm.DB
	jwtSecret    string
	accessExpiry time.Duration
	otpCfg       config.OTPConfig
}

func NewAuthService(
	studentRepo repository.StudentRepository,
	profileRepo repository.ProfileRepository,
	mail mailer.Sender,
	db *gorm.DB,
	jwtSecret string,
	accessExpiry time.Duration,
	otpCfg config.OTPConfig,
) AuthService {
	return &authService{
		studentRepo:  studentRepo,
		profileRepo:  profileRepo,
		mail:         mail,
		db:           db,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		otpCfg:       otpCfg,
	}
}

// SignUp stages a registration and sends an OTP. No Student row is
// created until the code is verified.
func (s *authService) SignUp(input SignUpInput) error {
	logger.Info("Sign-up attempt", map[string]interface{}{
		"email":    input.Email,
		"username": input.Username,
	})

	existing, err := s.studentRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing email", err, map[string]interface{}{
			"email": input.Email,
		})
		return err
	}
	if existing != nil {
		logger.Warn("Sign-up failed: email already registered", map[string]interface{}{
			"email": input.Email,
		})
		return ErrEmailAlreadyExists
	}

	byUsername, err := s.studentRepo.FindByUsername(input.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing username", err, map[string]interface{}{
			"username": input.Username,
		})
		return err
	}
	if byUsername != nil {
		logger.Warn("Sign-up failed: username already taken", map[string]interface{}{
			"username": input.Username,
		})
		return ErrUsernameAlreadyExists
	}

	passwordHash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return err
	}

	code, err := issueOTPCode(s.db, s.otpCfg.CodeLength, func(tx *gorm.DB) (livedUntil *time.Time, deleteStale func() error, create func(codeHash string) error, err error) {
		var pending model.Verification
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ?", input.Email).First(&pending).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil, nil, findErr
		}
		if findErr == nil {
			livedUntil = &pending.ExpiresAt
		}
		deleteStale = func() error {
			return tx.Where("email = ?", input.Email).Delete(&model.Verification{}).Error
		}
		create = func(codeHash string) error {
			return tx.Create(&model.Verification{
				Email:        input.Email,
				FullName:     input.FullName,
				Username:     input.Username,
				MobileNo:     input.MobileNo,
				PasswordHash: passwordHash,
				CodeHash:     codeHash,
				ExpiresAt:    time.Now().Add(s.otpCfg.SignupExpiry),
			}).Error
		}
		return livedUntil, deleteStale, create, nil
	})
	if err != nil {
		return err
	}

	dispatchOTPCode(s.mail, input.Email, code)

	logger.Info("Sign-up OTP issued", map[string]interface{}{
		"email": input.Email,
	})
	return nil
}

// VerifySignUp checks the code and, on success, promotes the staged
// registration into a Student. The whole check-and-promote runs in one
// transaction with the pending row locked.
func (s *authService) VerifySignUp(email, code string) (*model.Student, error) {
	logger.Info("Sign-up verification attempt", map[string]interface{}{
		"email": email,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during sign-up verification, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"email": email,
			})
		}
	}()

	var pending model.Verification
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).First(&pending).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Verification failed: no pending sign-up", map[string]interface{}{
				"email": email,
			})
			return nil, ErrOTPInvalidOrExpired
		}
		logger.Error("Failed to fetch pending sign-up", err, map[string]interface{}{
			"email": email,
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
	}, code, email, s.otpCfg.MaxAttempts); err != nil {
		return nil, err
	}

	// Another sign-up may have claimed the email while this code was
	// pending; the uniqueness re-check runs under the same transaction.
	var count int64
	if err := tx.Model(&model.Student{}).Where("email = ?", email).Count(&count).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to re-check email uniqueness", err, map[string]interface{}{
			"email": email,
		})
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
		logger.Warn("Verification failed: email registered while pending", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	student := &model.Student{
		Email:        pending.Email,
		Username:     pending.Username,
		FullName:     pending.FullName,
		MobileNo:     pending.MobileNo,
		PasswordHash: pending.PasswordHash,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := tx.Create(student).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create student", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if err := tx.Delete(&pending).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to discard pending sign-up", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit sign-up verification", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("Student registered", map[string]interface{}{
		"student_id": student.ID,
		"email":      student.Email,
	})
	return student, nil
}

func (s *authService) Login(email, password string) (*LoginResult, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	student, err := s.studentRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown email", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidCredentials
		}
		logger.Error("Failed to fetch student for login", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	if !student.IsActive {
		logger.Warn("Login failed: inactive account", map[string]interface{}{
			"student_id": student.ID,
		})
		return nil, ErrInvalidCredentials
	}

	if !util.VerifyPassword(student.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"student_id": student.ID,
		})
		return nil, ErrInvalidCredentials
	}

	if !student.IsVerified {
		logger.Warn("Login blocked: email not verified", map[string]interface{}{
			"student_id": student.ID,
		})
		return nil, ErrEmailNotVerified
	}

	token, err := util.GenerateAccessToken(student.ID, s.jwtSecret, s.accessExpiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"student_id": student.ID,
		})
		return nil, err
	}

	profileCompleted := true
	if _, err := s.profileRepo.FindByStudentID(student.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to check profile completion", err, map[string]interface{}{
				"student_id": student.ID,
			})
			return nil, err
		}
		profileCompleted = false
	}

	logger.Info("Student logged in", map[string]interface{}{
		"student_id": student.ID,
	})
	return &LoginResult{
		AccessToken:      token,
		ProfileCompleted: profileCompleted,
	}, nil
}

// ForgotPassword issues a reset OTP. Unknown addresses succeed with no
// side effect so the endpoint does not reveal which emails exist.
func (s *authService) ForgotPassword(email string) error {
	logger.Info("Password reset requested", map[string]interface{}{
		"email": email,
	})

	student, err := s.studentRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset for unknown email, responding generically", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		logger.Error("Failed to fetch student for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	code, err := issueOTPCode(s.db, s.otpCfg.CodeLength, func(tx *gorm.DB) (livedUntil *time.Time, deleteStale func() error, create func(codeHash string) error, err error) {
		var pending model.PasswordResetOTP
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("email = ?", email).First(&pending).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil, nil, findErr
		}
		if findErr == nil {
			livedUntil = &pending.ExpiresAt
		}
		deleteStale = func() error {
			return tx.Where("email = ?", email).Delete(&model.PasswordResetOTP{}).Error
		}
		create = func(codeHash string) error {
			return tx.Create(&model.PasswordResetOTP{
				Email:     email,
				CodeHash:  codeHash,
				ExpiresAt: time.Now().Add(s.otpCfg.ResetExpiry),
			}).Error
		}
		return livedUntil, deleteStale, create, nil
	})
	if err != nil {
		return err
	}

	dispatchOTPCode(s.mail, email, code)

	logger.Info("Password reset OTP issued", map[string]interface{}{
		"student_id": student.ID,
	})
	return nil
}

func (s *authService) ResetPassword(email, code, newPassword string) error {
	logger.Info("Password reset attempt", map[string]interface{}{
		"email": email,
	})

	student, err := s.studentRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		logger.Error("Failed to fetch student for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during password reset, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"email": email,
			})
		}
	}()

	var pending model.PasswordResetOTP
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).First(&pending).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset failed: no pending OTP", map[string]interface{}{
				"email": email,
			})
			return ErrOTPInvalidOrExpired
		}
		logger.Error("Failed to fetch pending reset OTP", err, map[string]interface{}{
			"email": email,
		})
		return err
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
	}, code, email, s.otpCfg.MaxAttempts); err != nil {
		return err
	}

	if err := tx.Model(&model.Student{}).Where("id = ?", student.ID).
		Update("password_hash", passwordHash).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update password", err, map[string]interface{}{
			"student_id": student.ID,
		})
		return err
	}
	if err := tx.Delete(&pending).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to discard reset OTP", err, map[string]interface{}{
			"student_id": student.ID,
		})
		return err
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit password reset", err, map[string]interface{}{
			"student_id": student.ID,
		})
		return err
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"student_id": student.ID,
	})
	return nil
}

