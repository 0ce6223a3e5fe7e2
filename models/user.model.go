package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	gorm.Model
	ProfileImage     string     `gorm:"default:''" json:"profile_image"`
	FirstName        string     `gorm:"default:''" json:"first_name"`
	LastName         string     `gorm:"default:''" json:"last_name"`
	Email            string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Mobile           string     `gorm:"default:''" json:"mobile"`
	Role             string     `gorm:"default:'USER'" json:"role"` // USER, ADMIN
	Password         string     `gorm:"not null" json:"-"`
	IsEmailVerified  bool       `gorm:"default:false" json:"is_email_verified"`
	EmailVerifiedAt  *time.Time `json:"email_verified_at"`
	IsMobileVerified bool       `gorm:"default:false" json:"is_mobile_verified"`
	IsBlocked        bool       `gorm:"default:false" json:"is_blocked"`
}

// FullName is the name printed on requests and certificates.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
