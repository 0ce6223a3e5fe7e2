// Package certification owns the certification request lifecycle, membership
// issuance and the membership access surface.
package certification

import (
	"context"
	"io"
	"time"

	"sdssn/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// File is an upload handed to the asset store.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// StoredAsset is what the asset store returns for a successful upload.
type StoredAsset struct {
	URL      string
	PublicID string
	FileName string
	FileType string
	Size     int64
	HostedAt string
}

// AssetStore persists uploaded files outside the database.
type AssetStore interface {
	Upload(ctx context.Context, file File, folder string) (*StoredAsset, error)
}

// Notifier delivers best-effort notices to users.
type Notifier interface {
	NotifyApproved(ctx context.Context, req *models.CertificationRequest) error
	NotifyRejected(ctx context.Context, req *models.CertificationRequest) error
	NotifyExpiring(ctx context.Context, m *models.Membership) error
}

// SerialGenerator produces certificate serials and membership codes. The
// exists callback reports whether a serial is already taken.
type SerialGenerator interface {
	NextCertificateSerial(exists func(serial string) (bool, error)) (string, error)
	MembershipCode(membershipID uint) string
}

// VerificationCache holds paid memberships by serial for public verification.
type VerificationCache interface {
	Get(ctx context.Context, serial string) (*models.Membership, bool)
	Set(ctx context.Context, m *models.Membership)
	Evict(ctx context.Context, serial string)
}

// CertificateRenderer turns a membership into a printable certificate document.
type CertificateRenderer interface {
	Render(m *models.Membership) (name string, body []byte, err error)
}

// Deps are the collaborators of a Service. Cache, Renderer, Logger and Now
// are optional.
type Deps struct {
	Notifier  Notifier
	Assets    AssetStore
	Serials   SerialGenerator
	Cache     VerificationCache
	Renderer  CertificateRenderer
	Logger    *logrus.Logger
	Now       func() time.Time
	VerifyURL string
	// CredentialFolder is where credential uploads go in the asset store.
	CredentialFolder string
	// CertificateFolder is where generated certificates go.
	CertificateFolder string
}

type Service struct {
	db                *gorm.DB
	notifier          Notifier
	assets            AssetStore
	serials           SerialGenerator
	cache             VerificationCache
	renderer          CertificateRenderer
	log               *logrus.Logger
	now               func() time.Time
	verifyURL         string
	credentialFolder  string
	certificateFolder string
}

func NewService(db *gorm.DB, deps Deps) *Service {
	s := &Service{
		db:                db,
		notifier:          deps.Notifier,
		assets:            deps.Assets,
		serials:           deps.Serials,
		cache:             deps.Cache,
		renderer:          deps.Renderer,
		log:               deps.Logger,
		now:               deps.Now,
		verifyURL:         deps.VerifyURL,
		credentialFolder:  deps.CredentialFolder,
		certificateFolder: deps.CertificateFolder,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.credentialFolder == "" {
		s.credentialFolder = "credentials"
	}
	if s.certificateFolder == "" {
		s.certificateFolder = "certificates"
	}
	return s
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*models.Membership, bool) { return nil, false }
func (noCache) Set(context.Context, *models.Membership)                {}
func (noCache) Evict(context.Context, string)                          {}
