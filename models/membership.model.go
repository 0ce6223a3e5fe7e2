package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Membership payment/activation status
const (
	MembershipPending = "pending"
	MembershipPaid    = "paid"
)

// Certificate generation status
const (
	CertificatePending    = "pending"
	CertificateProcessing = "processing"
	CertificateGenerated  = "generated"
)

// Membership is minted once per approved CertificationRequest.
type Membership struct {
	gorm.Model
	UserID                 uint           `gorm:"not null;index" json:"user_id"`
	CertificationRequestID uint           `gorm:"not null;uniqueIndex" json:"certification_request_id"`
	FullName               string         `gorm:"size:255" json:"full_name"`
	SerialNo               string         `gorm:"size:64;not null;uniqueIndex" json:"serial_no"`
	MembershipCode         string         `gorm:"size:64;index" json:"membership_code"`
	QRCode                 string         `gorm:"size:1024" json:"qr_code"`
	IssuedOn               datatypes.Date `json:"issued_on"`
	ExpiresOn              datatypes.Date `json:"expires_on"`
	CertificateStatus      string         `gorm:"size:20;not null;default:'pending';index" json:"certificate_status"`
	CertificateURL         string         `gorm:"size:1024" json:"certificate_url"`
	Status                 string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentReference       string         `gorm:"size:191" json:"payment_reference"`
	PaidAt                 *time.Time     `json:"paid_at"`
	ReminderSent           bool           `gorm:"default:false" json:"reminder_sent"`

	// Relations
	User                 *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CertificationRequest *CertificationRequest `gorm:"foreignKey:CertificationRequestID" json:"certification_request,omitempty"`
}

func (m Membership) IsPaid() bool {
	return m.Status == MembershipPaid
}
