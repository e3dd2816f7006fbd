package service

import (
	"fmt"
	"time"

	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/bheruji/learnflow-backend/pkg/mailer"
	"github.com/bheruji/learnflow-backend/pkg/util"
	"gorm.io/gorm"
)

// issueOTPCode runs the shared issuance transaction: reject while a
// live record exists, replace any stale one, store only the code hash.
// The prepare callback binds it to a concrete OTP table.
func issueOTPCode(
	db *gorm.DB,
	codeLength int,
	prepare func(tx *gorm.DB) (livedUntil *time.Time, deleteStale func() error, create func(codeHash string) error, err error),
) (string, error) {
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during OTP issuance, rolling back", fmt.Errorf("panic: %v", r), nil)
		}
	}()

	livedUntil, deleteStale, create, err := prepare(tx)
	if err != nil {
		tx.Rollback()
		logger.Error("Failed to check pending OTP", err, nil)
		return "", err
	}

	if livedUntil != nil {
		if remaining := time.Until(*livedUntil); remaining > 0 {
			tx.Rollback()
			return "", &OTPPendingError{RetryAfter: int(remaining.Seconds()) + 1}
		}
		if err := deleteStale(); err != nil {
			tx.Rollback()
			logger.Error("Failed to delete stale OTP record", err, nil)
			return "", err
		}
	}

	code, err := util.GenerateOTP(codeLength)
	if err != nil {
		tx.Rollback()
		logger.Error("Failed to generate OTP", err, nil)
		return "", err
	}

	if err := create(util.HashOTP(code)); err != nil {
		tx.Rollback()
		logger.Error("Failed to store OTP record", err, nil)
		return "", err
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit OTP issuance", err, nil)
		return "", err
	}
	return code, nil
}

// verificationRecord adapts a locked OTP row for the shared check.
type verificationRecord struct {
	codeHash     string
	expired      bool
	attempts     int
	bumpAttempts func() error
	remove       func() error
}

// checkOTPRecord applies the verification ladder to a locked record.
// On failure it settles the row (delete or attempts++), commits, and
// returns the sentinel. On success the transaction stays open for the
// caller's promotion step.
func checkOTPRecord(tx *gorm.DB, rec *verificationRecord, code, email string, maxAttempts int) error {
	if rec.expired {
		if err := rec.remove(); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
		logger.Warn("OTP check failed: expired", map[string]interface{}{
			"email": email,
		})
		return ErrOTPExpired
	}

	if rec.attempts >= maxAttempts {
		if err := rec.remove(); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
		logger.Warn("OTP check failed: attempts exhausted", map[string]interface{}{
			"email": email,
		})
		return ErrOTPTooManyAttempts
	}

	if !util.VerifyOTP(code, rec.codeHash) {
		if err := rec.bumpAttempts(); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}
		left := maxAttempts - rec.attempts - 1
		logger.Warn("OTP check failed: wrong code", map[string]interface{}{
			"email":         email,
			"attempts_left": left,
		})
		return &InvalidOTPError{AttemptsLeft: left}
	}

	return nil
}

// dispatchOTPCode sends the plaintext code out-of-band. Delivery
// failure is logged only; the stored record stands.
func dispatchOTPCode(mail mailer.Sender, email, code string) {
	go func() {
		if err := mail.SendOTP(email, code); err != nil {
			logger.Error("Failed to send OTP email", err, map[string]interface{}{
				"email": email,
			})
		}
	}()
}
