package models

import (
	"gorm.io/gorm"
)

// CertificationRequest status values
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestPaid     = "paid"
)

// CertificationRequest is a user's application for a certification type.
// Status only moves through the lifecycle service.
type CertificationRequest struct {
	gorm.Model
	UserID                 uint   `gorm:"not null;index" json:"user_id"`
	CertificationID        uint   `gorm:"not null;index" json:"certification_id"`
	FullName               string `gorm:"size:255" json:"full_name"`
	ReasonForCertification string `gorm:"type:text" json:"reason_for_certification"`
	ManagementNote         string `gorm:"type:text" json:"management_note"`
	CredentialID           *uint  `json:"credential_id"`
	Status                 string `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedBy              *uint  `json:"created_by"`
	ApprovedBy             *uint  `json:"approved_by"`
	RejectedBy             *uint  `json:"rejected_by"`

	// Relations
	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Certification *Certification `gorm:"foreignKey:CertificationID" json:"certification,omitempty"`
	Credential    *Asset         `gorm:"foreignKey:CredentialID" json:"credential,omitempty"`
	Membership    *Membership    `gorm:"foreignKey:CertificationRequestID" json:"membership,omitempty"`
}
