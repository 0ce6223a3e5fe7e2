package certification

import (
	"context"
	"errors"
	"strings"

	"sdssn/models"

	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Issue mints the membership for an approved request in its own transaction.
// It fails with ErrAlreadyIssued when the request already owns one.
func (s *Service) Issue(ctx context.Context, req *models.CertificationRequest) (*models.Membership, error) {
	var m *models.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = s.issue(tx, req)
		return err
	})
	if err != nil {
		return nil, unexpected("Failed to create membership for the user", err)
	}
	return m, nil
}

// issue inserts the membership and then derives its code from the new id.
func (s *Service) issue(tx *gorm.DB, req *models.CertificationRequest) (*models.Membership, error) {
	if req.Membership != nil {
		return nil, newError(ErrAlreadyIssued, "User already has a membership for this request")
	}
	// Soft-deleted memberships still hold the request's unique slot.
	var existing int64
	if err := tx.Unscoped().Model(&models.Membership{}).Where("certification_request_id = ?", req.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, newError(ErrAlreadyIssued, "User already has a membership for this request")
	}

	cert := req.Certification
	if cert == nil {
		cert = &models.Certification{}
		if err := tx.First(cert, req.CertificationID).Error; err != nil {
			return nil, err
		}
	}

	if s.serials == nil {
		return nil, errors.New("no serial generator configured")
	}
	serial, err := s.serials.NextCertificateSerial(func(candidate string) (bool, error) {
		var n int64
		err := tx.Unscoped().Model(&models.Membership{}).Where("serial_no = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return nil, err
	}

	issuedOn := now.With(s.now()).BeginningOfDay()
	expiresOn, err := cert.ExpiresFrom(issuedOn)
	if err != nil {
		return nil, err
	}

	m := models.Membership{
		UserID:                 req.UserID,
		FullName:               req.FullName,
		CertificationRequestID: req.ID,
		SerialNo:               serial,
		QRCode:                 strings.TrimRight(s.verifyURL, "/") + "/" + serial,
		IssuedOn:               datatypes.Date(issuedOn),
		ExpiresOn:              datatypes.Date(expiresOn),
		CertificateStatus:      models.CertificatePending,
		Status:                 models.MembershipPending,
	}

	// A concurrent approval that slipped past the count above trips the unique
	// index on certification_request_id.
	if err := tx.SavePoint("membership_insert").Error; err != nil {
		return nil, err
	}
	if err := tx.Omit("User", "CertificationRequest").Create(&m).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		if rbErr := tx.RollbackTo("membership_insert").Error; rbErr != nil {
			return nil, rbErr
		}
		var n int64
		if cErr := tx.Unscoped().Model(&models.Membership{}).Where("certification_request_id = ?", req.ID).Count(&n).Error; cErr != nil {
			return nil, cErr
		}
		if n > 0 {
			return nil, wrapError(ErrAlreadyIssued, "User already has a membership for this request", err)
		}
		return nil, err
	}

	m.MembershipCode = s.serials.MembershipCode(m.ID)
	if err := tx.Model(&models.Membership{}).Where("id = ?", m.ID).Update("membership_code", m.MembershipCode).Error; err != nil {
		return nil, err
	}

	membershipsIssued.Inc()
	s.log.WithFields(logrus.Fields{
		"membership_id":   m.ID,
		"request_id":      req.ID,
		"membership_code": m.MembershipCode,
	}).Info("membership created")

	req.Membership = &m
	return &m, nil
}
