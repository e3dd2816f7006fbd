package scheduler

import (
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// OTPCleanupScheduler periodically deletes expired OTP rows. The
// verifier already fails expired rows at check time, so the sweep is
// pure housekeeping and cannot race verification.
type OTPCleanupScheduler struct {
	cron             *cron.Cron
	verificationRepo repository.VerificationRepository
}

func NewOTPCleanupScheduler(verificationRepo repository.VerificationRepository) *OTPCleanupScheduler {
	return &OTPCleanupScheduler{
		cron:             cron.New(),
		verificationRepo: verificationRepo,
	}
}

func (s *OTPCleanupScheduler) Start() error {
	// every 10 minutes
	_, err := s.cron.AddFunc("*/10 * * * *", func() {
		deleted, err := s.verificationRepo.DeleteExpired()
		if err != nil {
			logger.Error("Failed to sweep expired OTP records", err, nil)
			return
		}
		if deleted > 0 {
			logger.Info("Swept expired OTP records", map[string]interface{}{
				"deleted": deleted,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to register OTP cleanup job", err, nil)
		return err
	}

	s.cron.Start()
	logger.Info("OTP cleanup scheduler started (every 10 minutes)", nil)
	return nil
}

func (s *OTPCleanupScheduler) Stop() {
	s.cron.Stop()
	logger.Info("OTP cleanup scheduler stopped", nil)
}
