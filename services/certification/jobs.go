package certification

import (
	"bytes"
	"context"
	"errors"
	"time"

	"sdssn/models"

	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	generationWorkers = 4
	// staleProcessingAfter is how long a claim may sit in processing before a
	// sweep hands it back to pending.
	staleProcessingAfter = 30 * time.Minute
)

// GeneratePendingCertificates claims up to limit memberships waiting for a
// certificate, renders and uploads each one, and marks them generated. A
// failed membership is released back to pending for the next sweep.
func (s *Service) GeneratePendingCertificates(ctx context.Context, limit int) (int, error) {
	if s.renderer == nil || s.assets == nil {
		return 0, errors.New("certificate generation needs a renderer and an asset store")
	}

	reclaimed := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("certificate_status = ? AND updated_at < ?", models.CertificateProcessing, s.now().Add(-staleProcessingAfter)).
		Update("certificate_status", models.CertificatePending)
	if reclaimed.Error != nil {
		return 0, reclaimed.Error
	}
	if reclaimed.RowsAffected > 0 {
		s.log.WithField("count", reclaimed.RowsAffected).Warn("reclaimed stale certificate claims")
	}

	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("certificate_status = ?", models.CertificatePending).
		Order("id asc").Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	var claimed []uint
	for _, id := range ids {
		res := s.db.WithContext(ctx).Model(&models.Membership{}).
			Where("id = ? AND certificate_status = ?", id, models.CertificatePending).
			Update("certificate_status", models.CertificateProcessing)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			claimed = append(claimed, id)
		}
	}

	results := make([]bool, len(claimed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(generationWorkers)
	for i, id := range claimed {
		i, id := i, id
		g.Go(func() error {
			if err := s.generateOne(gctx, id); err != nil {
				s.log.WithError(err).WithField("membership_id", id).Warn("certificate generation failed")
				release := s.db.WithContext(context.Background()).Model(&models.Membership{}).
					Where("id = ?", id).
					Update("certificate_status", models.CertificatePending)
				if release.Error != nil {
					s.log.WithError(release.Error).WithField("membership_id", id).
						Error("releasing certificate claim failed")
				}
				return nil
			}
			results[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	generated := 0
	for _, ok := range results {
		if ok {
			generated++
		}
	}
	return generated, nil
}

func (s *Service) generateOne(ctx context.Context, id uint) error {
	m, err := s.ShowMembership(ctx, id, MembershipDetailIncludes...)
	if err != nil {
		return err
	}
	name, body, err := s.renderer.Render(m)
	if err != nil {
		return err
	}
	stored, err := s.assets.Upload(ctx, File{Name: name, Size: int64(len(body)), Reader: bytes.NewReader(body)}, s.certificateFolder)
	if err != nil {
		return wrapError(ErrAssetUploadFailed, "Failed to upload certificate.", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"certificate_status": models.CertificateGenerated,
			"certificate_url":    stored.URL,
		}).Error; err != nil {
		return err
	}
	s.cache.Evict(ctx, m.SerialNo)
	return nil
}

// SendExpiryReminders notifies owners of paid memberships that expire within
// window, once per membership.
func (s *Service) SendExpiryReminders(ctx context.Context, window time.Duration) (int, error) {
	today := now.With(s.now()).BeginningOfDay()
	until := today.Add(window)

	var due []models.Membership
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND reminder_sent = ?", models.MembershipPaid, false).
		Where("expires_on >= ? AND expires_on <= ?", today, until).
		Find(&due).Error; err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		m := &due[i]
		if s.notifier != nil {
			if err := s.notifier.NotifyExpiring(ctx, m); err != nil {
				s.log.WithError(err).WithField("membership_id", m.ID).Warn("expiry reminder failed")
				continue
			}
		}
		err := s.db.WithContext(ctx).Session(&gorm.Session{}).Model(&models.Membership{}).
			Where("id = ?", m.ID).Update("reminder_sent", true).Error
		if err != nil {
			return sent, err
		}
		sent++
	}

	s.log.WithFields(logrus.Fields{"due": len(due), "sent": sent}).Info("expiry reminders processed")
	return sent, nil
}
