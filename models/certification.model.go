package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Duration units accepted on a certification type
const (
	DurationDays   = "days"
	DurationWeeks  = "weeks"
	DurationMonths = "months"
	DurationYears  = "years"
)

// Signature is an authority signature printed on certificates.
type Signature struct {
	gorm.Model
	Name    string `gorm:"size:255;not null" json:"name"`
	Title   string `gorm:"size:255" json:"title"`
	ImageID *uint  `json:"image_id"`
	Image   *Asset `gorm:"foreignKey:ImageID" json:"image,omitempty"`
}

// Certification is read-only catalog data consumed by the request workflow.
type Certification struct {
	gorm.Model
	Name                  string     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Type                  string     `gorm:"size:100;index" json:"type"`
	Description           string     `json:"description"`
	Duration              int        `gorm:"not null;default:1" json:"duration"`
	DurationUnit          string     `gorm:"size:20;not null;default:'years'" json:"duration_unit"`
	ManagementSignatureID *uint      `json:"management_signature_id"`
	ManagementSignature   *Signature `gorm:"foreignKey:ManagementSignatureID" json:"management_signature,omitempty"`
	SecretarySignatureID  *uint      `json:"secretary_signature_id"`
	SecretarySignature    *Signature `gorm:"foreignKey:SecretarySignatureID" json:"secretary_signature,omitempty"`
}

// NormalizeDurationUnit maps singular and mixed-case spellings to a unit constant.
func NormalizeDurationUnit(unit string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch strings.TrimSuffix(u, "s") {
	case "day":
		return DurationDays, nil
	case "week":
		return DurationWeeks, nil
	case "month":
		return DurationMonths, nil
	case "year":
		return DurationYears, nil
	}
	return "", fmt.Errorf("unknown duration unit %q", unit)
}

// ExpiresFrom returns issuedOn plus the declared duration in the declared unit.
func (c Certification) ExpiresFrom(issuedOn time.Time) (time.Time, error) {
	if c.Duration <= 0 {
		return time.Time{}, fmt.Errorf("certification %d has non-positive duration %d", c.ID, c.Duration)
	}
	unit, err := NormalizeDurationUnit(c.DurationUnit)
	if err != nil {
		return time.Time{}, err
	}
	switch unit {
	case DurationDays:
		return issuedOn.AddDate(0, 0, c.Duration), nil
	case DurationWeeks:
		return issuedOn.AddDate(0, 0, 7*c.Duration), nil
	case DurationMonths:
		return issuedOn.AddDate(0, c.Duration, 0), nil
	default:
		return issuedOn.AddDate(c.Duration, 0, 0), nil
	}
}
