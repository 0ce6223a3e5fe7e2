package certification

import (
	"context"
	"errors"
	"strings"
	"time"

	"sdssn/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MembershipFilter narrows the admin membership listing. IssuedOn and
// ExpiresOn are YYYY-MM-DD.
type MembershipFilter struct {
	Search            string
	Status            string
	CertificateStatus string
	IssuedOn          string
	ExpiresOn         string
	PageQuery
}

var (
	membershipTextColumns = []string{"full_name", "serial_no", "membership_code", "qr_code"}
	membershipIDColumns   = []string{"id", "user_id", "certification_request_id"}
)

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, validationError(map[string]string{field: "Date must be formatted as YYYY-MM-DD!"})
	}
	return t, nil
}

// ListMemberships is the admin listing.
func (s *Service) ListMemberships(ctx context.Context, f MembershipFilter) (*Page[models.Membership], error) {
	q := s.db.WithContext(ctx).Model(&models.Membership{})
	q = matchAny(q, f.Search, membershipTextColumns, membershipIDColumns)
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("status = ?", v)
	}
	if v := strings.TrimSpace(f.CertificateStatus); v != "" {
		q = q.Where("certificate_status = ?", v)
	}
	if v := strings.TrimSpace(f.IssuedOn); v != "" {
		d, err := parseDate("issued_on", v)
		if err != nil {
			return nil, err
		}
		q = q.Where("issued_on >= ? AND issued_on < ?", d, d.AddDate(0, 0, 1))
	}
	if v := strings.TrimSpace(f.ExpiresOn); v != "" {
		d, err := parseDate("expires_on", v)
		if err != nil {
			return nil, err
		}
		q = q.Where("expires_on >= ? AND expires_on < ?", d, d.AddDate(0, 0, 1))
	}

	page, err := paginate[models.Membership](q, f.PageQuery, membershipPreloads([]Include{IncludeUser}))
	if err != nil {
		return nil, unexpected("Failed to fetch memberships", err)
	}
	return page, nil
}

// SearchMemberships is the admin free-text search with the full signature chain.
func (s *Service) SearchMemberships(ctx context.Context, term string, pq PageQuery) (*Page[models.Membership], error) {
	if strings.TrimSpace(term) == "" {
		return nil, validationError(map[string]string{"search": "Search is required!"})
	}
	q := matchAny(s.db.WithContext(ctx).Model(&models.Membership{}), term, membershipTextColumns, membershipIDColumns)
	page, err := paginate[models.Membership](q, pq, membershipPreloads(MembershipDetailIncludes))
	if err != nil {
		return nil, unexpected("Failed to search memberships", err)
	}
	return page, nil
}

// MyMemberships lists the actor's memberships.
func (s *Service) MyMemberships(ctx context.Context, actor Actor, pq PageQuery) (*Page[models.Membership], error) {
	q := s.db.WithContext(ctx).Model(&models.Membership{}).Where("user_id = ?", actor.ID)
	page, err := paginate[models.Membership](q, pq, membershipPreloads([]Include{IncludeCertification}))
	if err != nil {
		return nil, unexpected("Failed to fetch memberships", err)
	}
	return page, nil
}

func (s *Service) findMembership(db *gorm.DB, where string, arg interface{}, includes []Include) (*models.Membership, error) {
	var m models.Membership
	err := preload(db, membershipPreloads(includes)).Where(where, arg).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Membership not found")
		}
		return nil, unexpected("Failed to fetch membership", err)
	}
	return &m, nil
}

// ShowMembership is the admin view of any membership.
func (s *Service) ShowMembership(ctx context.Context, id uint, includes ...Include) (*models.Membership, error) {
	return s.findMembership(s.db.WithContext(ctx), "id = ?", id, includes)
}

// ShowOwnMembership returns one of the actor's memberships once it is paid.
// Someone else's membership is reported as not found.
func (s *Service) ShowOwnMembership(ctx context.Context, actor Actor, id uint) (*models.Membership, error) {
	m, err := s.findMembership(s.db.WithContext(ctx), "id = ?", id, MembershipDetailIncludes)
	if err != nil {
		return nil, err
	}
	if m.UserID != actor.ID {
		return nil, newError(ErrNotFound, "Membership not found")
	}
	if !m.IsPaid() {
		return nil, newError(ErrNotActive, "Membership is invalid or pending.")
	}
	return m, nil
}

// VerifyMembership is the public lookup by serial. Unknown serials are
// ErrNotFound; known but unpaid memberships are ErrNotActive.
func (s *Service) VerifyMembership(ctx context.Context, serial string) (*models.Membership, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, validationError(map[string]string{"serial_no": "Serial number is required!"})
	}

	if m, ok := s.cache.Get(ctx, serial); ok {
		verificationsTotal.WithLabelValues("cached").Inc()
		return m, nil
	}

	m, err := s.findMembership(s.db.WithContext(ctx), "serial_no = ?", serial, MembershipDetailIncludes)
	if err != nil {
		verificationsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}
	if !m.IsPaid() {
		verificationsTotal.WithLabelValues("not_active").Inc()
		return nil, newError(ErrNotActive, "Membership is invalid or pending.")
	}

	verificationsTotal.WithLabelValues("ok").Inc()
	s.cache.Set(ctx, m)
	return m, nil
}

// MembershipPatch holds the fields an admin may correct after issuance.
// Serial, code and dates never change.
type MembershipPatch struct {
	FullName          *string
	CertificateStatus *string
}

// UpdateMembership applies an admin correction. A name change sends the
// certificate back for regeneration.
func (s *Service) UpdateMembership(ctx context.Context, actor Actor, id uint, patch MembershipPatch) (*models.Membership, error) {
	updates := map[string]interface{}{}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			return nil, validationError(map[string]string{"full_name": "Full name cannot be empty!"})
		}
		updates["full_name"] = name
		updates["certificate_status"] = models.CertificatePending
	}
	if patch.CertificateStatus != nil {
		switch *patch.CertificateStatus {
		case models.CertificatePending, models.CertificateProcessing, models.CertificateGenerated:
			updates["certificate_status"] = *patch.CertificateStatus
		default:
			return nil, validationError(map[string]string{"certificate_status": "Certificate status must be pending, processing or generated!"})
		}
	}
	if len(updates) == 0 {
		return nil, validationError(map[string]string{"full_name": "Nothing to update!"})
	}

	var serial string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		if err := forUpdate(tx).First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Membership not found")
			}
			return err
		}
		serial = m.SerialNo
		return tx.Model(&models.Membership{}).Where("id = ?", m.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, unexpected("Failed to update membership", err)
	}
	s.cache.Evict(ctx, serial)

	s.log.WithFields(logrus.Fields{"membership_id": id, "actor_id": actor.ID}).Info("membership updated")
	return s.ShowMembership(ctx, id, MembershipDetailIncludes...)
}

// MarkPaid activates a membership against a payment reference and moves its
// request to paid, atomically.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, id uint, reference string) (*models.Membership, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, validationError(map[string]string{"payment_reference": "Payment reference is required!"})
	}

	var serial string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		if err := forUpdate(tx).First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Membership not found")
			}
			return err
		}
		if m.IsPaid() {
			return newError(ErrInvalidTransition, "Membership is already paid")
		}
		serial = m.SerialNo

		paidAt := s.now()
		if err := tx.Model(&models.Membership{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
			"status":            models.MembershipPaid,
			"payment_reference": reference,
			"paid_at":           paidAt,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.CertificationRequest{}).
			Where("id = ?", m.CertificationRequestID).
			Update("status", models.RequestPaid).Error
	})
	if err != nil {
		return nil, unexpected("Failed to activate membership", err)
	}
	s.cache.Evict(ctx, serial)

	s.log.WithFields(logrus.Fields{"membership_id": id, "actor_id": actor.ID, "reference": reference}).Info("membership activated")
	return s.ShowMembership(ctx, id, MembershipDetailIncludes...)
}

// DeleteMembership soft-deletes a membership.
func (s *Service) DeleteMembership(ctx context.Context, actor Actor, id uint) error {
	m, err := s.ShowMembership(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Membership{}, m.ID).Error; err != nil {
		return unexpected("Failed to delete membership", err)
	}
	s.cache.Evict(ctx, m.SerialNo)
	s.log.WithFields(logrus.Fields{"membership_id": id, "actor_id": actor.ID}).Info("membership deleted")
	return nil
}
