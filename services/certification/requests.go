package certification

import (
	"context"
	"errors"
	"strings"

	"sdssn/models"

	"gorm.io/gorm"
)

// RequestFilter narrows the admin request listing.
type RequestFilter struct {
	Search string
	Status string
	Type   string
	PageQuery
}

var (
	requestTextColumns = []string{"full_name", "reason_for_certification", "management_note", "status"}
	requestIDColumns   = []string{"id", "user_id", "certification_id", "credential_id", "created_by", "approved_by", "rejected_by"}
)

// ListRequests is the admin listing with search, status and type filters.
func (s *Service) ListRequests(ctx context.Context, f RequestFilter) (*Page[models.CertificationRequest], error) {
	q := s.db.WithContext(ctx).Model(&models.CertificationRequest{})
	q = matchAny(q, f.Search, requestTextColumns, requestIDColumns)
	if status := strings.TrimSpace(f.Status); status != "" {
		q = q.Where("status = ?", status)
	}
	if typ := strings.TrimSpace(f.Type); typ != "" {
		q = q.Where("certification_id IN (?)",
			s.db.Model(&models.Certification{}).Select("id").Where("type = ?", typ))
	}

	page, err := paginate[models.CertificationRequest](q, f.PageQuery, requestPreloads([]Include{IncludeCertification, IncludeUser}))
	if err != nil {
		return nil, unexpected("Failed to fetch certification requests", err)
	}
	return page, nil
}

// MyRequests lists the actor's own requests.
func (s *Service) MyRequests(ctx context.Context, actor Actor, pq PageQuery) (*Page[models.CertificationRequest], error) {
	q := s.db.WithContext(ctx).Model(&models.CertificationRequest{}).Where("user_id = ?", actor.ID)
	page, err := paginate[models.CertificationRequest](q, pq, requestPreloads([]Include{IncludeCertification, IncludeMembership}))
	if err != nil {
		return nil, unexpected("Failed to fetch certification requests", err)
	}
	return page, nil
}

// ShowRequest loads one live request with the requested aggregates.
func (s *Service) ShowRequest(ctx context.Context, id uint, includes ...Include) (*models.CertificationRequest, error) {
	var req models.CertificationRequest
	err := preload(s.db.WithContext(ctx), requestPreloads(includes)).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Certification request not found")
		}
		return nil, unexpected("Failed to fetch certification request", err)
	}
	return &req, nil
}

// TrashedRequests lists soft-deleted requests only.
func (s *Service) TrashedRequests(ctx context.Context, pq PageQuery) (*Page[models.CertificationRequest], error) {
	q := s.db.WithContext(ctx).Unscoped().Model(&models.CertificationRequest{}).Where("deleted_at IS NOT NULL")
	page, err := paginate[models.CertificationRequest](q, pq, requestPreloads([]Include{IncludeUser}))
	if err != nil {
		return nil, unexpected("Failed to fetch trashed certification requests", err)
	}
	return page, nil
}

// Applicant fields a request search can match against.
const (
	ByUserName  = "name"
	ByUserEmail = "email"
)

// SearchRequestsByUser matches the applicant's name or e-mail.
func (s *Service) SearchRequestsByUser(ctx context.Context, by, term string, pq PageQuery) (*Page[models.CertificationRequest], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, validationError(map[string]string{by: "Search term is required!"})
	}
	like := "%" + strings.ToLower(term) + "%"

	users := s.db.Model(&models.User{}).Select("id")
	switch by {
	case ByUserName:
		users = users.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	case ByUserEmail:
		users = users.Where("LOWER(email) LIKE ?", like)
	default:
		return nil, validationError(map[string]string{"by": "Search must be by name or email!"})
	}

	q := s.db.WithContext(ctx).Model(&models.CertificationRequest{}).Where("user_id IN (?)", users)
	page, err := paginate[models.CertificationRequest](q, pq, requestPreloads([]Include{IncludeUser}))
	if err != nil {
		return nil, unexpected("Failed to search certification requests", err)
	}
	return page, nil
}
