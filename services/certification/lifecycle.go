package certification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"sdssn/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmitInput is a user's certification application.
type SubmitInput struct {
	CertificationID        uint
	ReasonForCertification string
	Credential             *File
}

// Submit records a pending request for the actor. Status is always pending
// regardless of caller input.
func (s *Service) Submit(ctx context.Context, actor Actor, in SubmitInput) (*models.CertificationRequest, error) {
	fields := map[string]string{}
	if actor.ID == 0 {
		fields["user"] = "Authenticated user is required!"
	}
	if in.CertificationID == 0 {
		fields["certification_id"] = "Certification is required!"
	}
	if strings.TrimSpace(in.ReasonForCertification) == "" {
		fields["reason_for_certification"] = "Reason for certification is required!"
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	var created models.CertificationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, actor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "User not found!")
			}
			return err
		}

		var cert models.Certification
		if err := tx.First(&cert, in.CertificationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationError(map[string]string{"certification_id": "Selected certification does not exist!"})
			}
			return err
		}

		var sameType int64
		if err := tx.Model(&models.CertificationRequest{}).
			Where("user_id = ? AND certification_id = ?", actor.ID, cert.ID).
			Count(&sameType).Error; err != nil {
			return err
		}
		if sameType > 0 {
			return newError(ErrDuplicateRequestForType, "You have already requested for this certification")
		}

		var active int64
		if err := tx.Model(&models.CertificationRequest{}).
			Where("user_id = ? AND status <> ?", actor.ID, models.RequestRejected).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return newError(ErrDuplicateActiveRequest, "You have already requested for a certification, contact SDSSN if you believe this is an error.")
		}

		created = models.CertificationRequest{
			UserID:                 actor.ID,
			CertificationID:        cert.ID,
			FullName:               user.FullName(),
			ReasonForCertification: strings.TrimSpace(in.ReasonForCertification),
			Status:                 models.RequestPending,
			CreatedBy:              &actor.ID,
		}

		if in.Credential != nil {
			asset, err := s.storeCredential(ctx, tx, *in.Credential)
			if err != nil {
				return err
			}
			created.CredentialID = &asset.ID
		}

		return tx.Omit("User", "Certification", "Credential", "Membership").Create(&created).Error
	})
	if err != nil {
		return nil, unexpected("Failed to create certification request", err)
	}

	s.log.WithFields(logrus.Fields{"request_id": created.ID, "actor_id": actor.ID}).
		Info("certification request created")
	return &created, nil
}

func (s *Service) storeCredential(ctx context.Context, tx *gorm.DB, file File) (*models.Asset, error) {
	if s.assets == nil {
		return nil, newError(ErrAssetUploadFailed, "Failed to upload credential file.")
	}
	stored, err := s.assets.Upload(ctx, file, s.credentialFolder)
	if err != nil {
		return nil, wrapError(ErrAssetUploadFailed, "Failed to upload credential file.", err)
	}
	s.log.WithField("url", stored.URL).Info("credential file uploaded")

	meta, err := json.Marshal(map[string]interface{}{
		"folder":        s.credentialFolder,
		"uploaded_name": file.Name,
		"declared_size": file.Size,
	})
	if err != nil {
		return nil, err
	}

	asset := models.Asset{
		OriginalName: "user credential file",
		Path:         "file",
		HostedAt:     stored.HostedAt,
		Name:         stored.FileName,
		Description:  "user credential file upload",
		URL:          stored.URL,
		FileID:       stored.PublicID,
		Type:         stored.FileType,
		Size:         stored.Size,
		Meta:         datatypes.JSON(meta),
	}
	if err := tx.Create(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// StatusInput is an admin decision on a request.
type StatusInput struct {
	Status         string
	ManagementNote *string
}

// checkTransition enforces the request state machine.
func checkTransition(current, requested string) error {
	switch current {
	case models.RequestPaid:
		return newError(ErrInvalidTransition, "Cannot update a paid certification request")
	case models.RequestApproved:
		if requested == models.RequestApproved {
			return newError(ErrAlreadyApproved, "Certification request already approved")
		}
		return newError(ErrInvalidTransition, "Cannot update an approved certification request")
	case models.RequestRejected:
		if requested != models.RequestApproved {
			return newError(ErrInvalidTransition, "You can only update a rejected certification request to approved")
		}
		return nil
	case models.RequestPending:
		if requested != models.RequestApproved && requested != models.RequestRejected {
			return newError(ErrInvalidTransition, "You can only update a pending certification request to approved or rejected")
		}
		return nil
	}
	return newError(ErrInvalidTransition, "Certification request is in an unknown state")
}

func knownStatus(status string) bool {
	switch status {
	case models.RequestPending, models.RequestApproved, models.RequestRejected, models.RequestPaid:
		return true
	}
	return false
}

// UpdateStatus moves a request through the state machine. Approval mints the
// membership inside the same transaction. Notices go out only after commit
// and never affect the stored state.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id uint, in StatusInput) (*models.CertificationRequest, error) {
	requested := strings.ToLower(strings.TrimSpace(in.Status))
	if !knownStatus(requested) {
		return nil, validationError(map[string]string{"status": "Status must be approved or rejected!"})
	}

	var from string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CertificationRequest
		if err := forUpdate(tx).Preload("Membership").Preload("Certification").First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Certification request not found")
			}
			return err
		}
		from = req.Status

		if err := checkTransition(req.Status, requested); err != nil {
			return err
		}

		updates := map[string]interface{}{"status": requested}
		if in.ManagementNote != nil {
			updates["management_note"] = strings.TrimSpace(*in.ManagementNote)
		}

		switch requested {
		case models.RequestApproved:
			if req.Membership != nil {
				return newError(ErrAlreadyIssued, "A membership has already been issued for this request")
			}
			if req.Status == models.RequestRejected {
				// Reopening must not leave the user with two live requests.
				var others int64
				if err := tx.Model(&models.CertificationRequest{}).
					Where("user_id = ? AND status <> ? AND id <> ?", req.UserID, models.RequestRejected, req.ID).
					Count(&others).Error; err != nil {
					return err
				}
				if others > 0 {
					return newError(ErrDuplicateActiveRequest, "The user already has an active certification request")
				}
			}
			if _, err := s.issue(tx, &req); err != nil {
				return err
			}
			updates["approved_by"] = actor.ID
		case models.RequestRejected:
			updates["rejected_by"] = actor.ID
		}

		return tx.Model(&models.CertificationRequest{}).Where("id = ?", req.ID).Updates(updates).Error
	})
	if err != nil {
		transitionsTotal.WithLabelValues(from, requested, resultLabel(err)).Inc()
		return nil, unexpected("Failed to update certification request", err)
	}
	transitionsTotal.WithLabelValues(from, requested, "ok").Inc()

	updated, err := s.ShowRequest(ctx, id, IncludeUser, IncludeCertification, IncludeMembership)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"request_id": id, "actor_id": actor.ID, "from": from, "to": requested}
	s.log.WithFields(fields).Info("certification request status updated")

	s.dispatch(ctx, updated, from, requested)
	return updated, nil
}

// dispatch sends the post-commit notice for a transition.
func (s *Service) dispatch(ctx context.Context, req *models.CertificationRequest, from, to string) {
	if s.notifier == nil {
		return
	}
	var err error
	switch {
	case to == models.RequestApproved:
		err = s.notifier.NotifyApproved(ctx, req)
	case from == models.RequestPending && to == models.RequestRejected:
		err = s.notifier.NotifyRejected(ctx, req)
	default:
		return
	}
	if err != nil {
		s.log.WithError(wrapError(ErrNotificationFailed, "notice not delivered", err)).
			WithField("request_id", req.ID).Warn("certification notice failed")
	}
}

// Destroy soft-deletes a rejected request that never produced a membership.
func (s *Service) Destroy(ctx context.Context, actor Actor, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CertificationRequest
		if err := forUpdate(tx).Preload("Membership").First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Certification request not found")
			}
			return err
		}
		if req.Status != models.RequestRejected || req.Membership != nil {
			return newError(ErrForbiddenDelete, "You can only delete rejected certification request")
		}
		return tx.Delete(&models.CertificationRequest{}, req.ID).Error
	})
	if err != nil {
		return unexpected("Failed to delete certification request", err)
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "actor_id": actor.ID}).Info("certification request deleted")
	return nil
}

// Delete rejects a request on behalf of the actor and soft-deletes it.
// Approved and paid requests are kept.
func (s *Service) Delete(ctx context.Context, actor Actor, id uint) (*models.CertificationRequest, error) {
	var req models.CertificationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Certification request not found")
			}
			return err
		}
		if req.Status == models.RequestPaid || req.Status == models.RequestApproved {
			return newError(ErrForbiddenDelete, "Can't delete paid or approved certification request")
		}

		req.Status = models.RequestRejected
		req.RejectedBy = &actor.ID
		if err := tx.Model(&models.CertificationRequest{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
			"status":      models.RequestRejected,
			"rejected_by": actor.ID,
		}).Error; err != nil {
			return err
		}
		return tx.Delete(&req).Error
	})
	if err != nil {
		return nil, unexpected("Failed to delete certification request", err)
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "actor_id": actor.ID}).Info("certification request rejected and deleted")
	return &req, nil
}

// ForceDelete purges a request that is already soft-deleted.
func (s *Service) ForceDelete(ctx context.Context, actor Actor, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CertificationRequest
		if err := tx.Unscoped().Where("id = ? AND deleted_at IS NOT NULL", id).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Trashed certification request not found")
			}
			return err
		}
		return tx.Unscoped().Delete(&models.CertificationRequest{}, req.ID).Error
	})
	if err != nil {
		return unexpected("Failed to force delete certification request", err)
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "actor_id": actor.ID}).Info("certification request force deleted")
	return nil
}

// Restore clears the soft-delete marker.
func (s *Service) Restore(ctx context.Context, actor Actor, id uint) (*models.CertificationRequest, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.CertificationRequest
		if err := tx.Unscoped().First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "Certification request not found")
			}
			return err
		}
		return tx.Unscoped().Model(&models.CertificationRequest{}).Where("id = ?", id).Update("deleted_at", nil).Error
	})
	if err != nil {
		return nil, unexpected("Failed to restore certification request", err)
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "actor_id": actor.ID}).Info("certification request restored")
	return s.ShowRequest(ctx, id)
}

func resultLabel(err error) string {
	switch KindOf(err) {
	case ErrInvalidTransition:
		return "invalid"
	case ErrAlreadyApproved:
		return "already_approved"
	case ErrAlreadyIssued:
		return "already_issued"
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	}
	return "error"
}
