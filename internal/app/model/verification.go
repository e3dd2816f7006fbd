package model

import (
	"time"
)

// Verification is a pending signup waiting for its email OTP. At most one
// live row exists per email, enforced by delete-then-recreate on issuance.
// Only the sha256 digest of the code is stored, never the plaintext.
type Verification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName     string    `json:"full_name"`
	Username     string    `gorm:"size:255;not null" json:"username"`
	MobileNo     string    `json:"mobile_no"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CodeHash     string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	Attempts     int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Verification) TableName() string {
	return "verifications"
}

// IsExpired reports whether the code window has closed
func (v *Verification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// PasswordResetOTP is a pending password-reset request
type PasswordResetOTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	CodeHash  string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

func (PasswordResetOTP) TableName() string {
	return "password_reset_otps"
}

func (r *PasswordResetOTP) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// EmailChangeRequest stages a new address for an existing account until the
// OTP sent to that address is confirmed
type EmailChangeRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	NewEmail  string    `gorm:"size:255;not null;index" json:"new_email"`
	CodeHash  string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailChangeRequest) TableName() string {
	return "email_change_requests"
}

func (r *EmailChangeRequest) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
