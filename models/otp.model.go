package models

import (
	"time"
)

// OTP purposes
const (
	OTPPurposeAccountVerification = "account_verification"
	OTPPurposePasswordReset       = "password_reset"
)

// OTP is a one-time code issued to a user for a purpose. Only the bcrypt hash
// of the code is stored. Rows are hard deleted when superseded or consumed.
type OTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_otp_user_purpose" json:"user_id"`
	Purpose   string    `gorm:"size:50;not null;index:idx_otp_user_purpose" json:"purpose"`
	CodeHash  string    `gorm:"size:100;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (OTP) TableName() string {
	return "otp_tokens"
}
