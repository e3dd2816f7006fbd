package repository

import (
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/model"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"gorm.io/gorm"
)

// VerificationRepository serves the maintenance side of the OTP tables.
// The issue/verify paths run inside explicit transactions in the auth and
// profile services so that row locking and promotion stay atomic.
type VerificationRepository interface {
	DeleteExpired() (int64, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// DeleteExpired removes dead OTP rows from all three verification tables.
// Purely housekeeping: the verifier checks expiry itself, so rows left
// behind between sweeps are still rejected correctly.
func (r *verificationRepository) DeleteExpired() (int64, error) {
	now := time.Now()
	var total int64

	res := r.db.Where("expires_at < ?", now).Delete(&model.Verification{})
	if res.Error != nil {
		logger.Error("Failed to delete expired signup verifications", res.Error)
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.Where("expires_at < ?", now).Delete(&model.PasswordResetOTP{})
	if res.Error != nil {
		logger.Error("Failed to delete expired password reset OTPs", res.Error)
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.Where("expires_at < ?", now).Delete(&model.EmailChangeRequest{})
	if res.Error != nil {
		logger.Error("Failed to delete expired email change requests", res.Error)
		return total, res.Error
	}
	total += res.RowsAffected

	return total, nil
}
