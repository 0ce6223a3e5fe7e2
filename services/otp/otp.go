// Package otp issues and verifies one-time codes. Codes are stored as bcrypt
// hashes, a new code supersedes older ones for the same user and purpose,
// and a code is consumed by its first successful verification.
package otp

import (
	"context"
	"errors"
	"time"

	"sdssn/models"
	"sdssn/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidOTP = errors.New("invalid otp")
	ErrOTPExpired = errors.New("otp expired")
)

type Service struct {
	db       *gorm.DB
	ttl      time.Duration
	cost     int
	now      func() time.Time
	generate func() (string, error)
}

func NewService(db *gorm.DB, ttl time.Duration, cost int) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, ttl: ttl, cost: cost, now: time.Now, generate: utils.GenerateOTP}
}

// Issue replaces any outstanding code for (userID, purpose) and returns the
// new plain code for delivery.
func (s *Service) Issue(ctx context.Context, userID uint, purpose string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND purpose = ?", userID, purpose).Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.OTP{
			UserID:    userID,
			Purpose:   purpose,
			CodeHash:  string(hash),
			ExpiresAt: s.now().Add(s.ttl),
		}).Error
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the outstanding token and consumes it on success.
func (s *Service) Verify(ctx context.Context, userID uint, purpose, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.consume(tx, userID, purpose, code)
	})
}

func (s *Service) consume(tx *gorm.DB, userID uint, purpose, code string) error {
	var token models.OTP
	err := tx.Where("user_id = ? AND purpose = ?", userID, purpose).Order("id desc").First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if s.now().After(token.ExpiresAt) {
		return ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(token.CodeHash), []byte(code)) != nil {
		return ErrInvalidOTP
	}
	return tx.Where("user_id = ? AND purpose = ?", userID, purpose).Delete(&models.OTP{}).Error
}

// VerifyAccount consumes an account verification code and marks the user's
// e-mail verified.
func (s *Service) VerifyAccount(ctx context.Context, userID uint, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consume(tx, userID, models.OTPPurposeAccountVerification, code); err != nil {
			return err
		}
		verifiedAt := s.now()
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"is_email_verified": true,
			"email_verified_at": verifiedAt,
		}).Error
	})
}

// ResetPassword consumes a password reset code and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, userID uint, code, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consume(tx, userID, models.OTPPurposePasswordReset, code); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("password", string(hash)).Error
	})
}
