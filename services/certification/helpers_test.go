package certification_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"sdssn/database"
	"sdssn/models"
	"sdssn/services/certification"
	"sdssn/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const verifyURL = "https://sdssn.test/verify/"

var clock = time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

type fakeNotifier struct {
	mu       sync.Mutex
	approved []uint
	rejected []uint
	expiring []uint
	err      error
}

func (n *fakeNotifier) NotifyApproved(_ context.Context, req *models.CertificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, req.ID)
	return n.err
}

func (n *fakeNotifier) NotifyRejected(_ context.Context, req *models.CertificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, req.ID)
	return n.err
}

func (n *fakeNotifier) NotifyExpiring(_ context.Context, m *models.Membership) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expiring = append(n.expiring, m.ID)
	return n.err
}

type upload struct {
	folder string
	name   string
	body   string
}

type fakeAssets struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (a *fakeAssets) Upload(_ context.Context, file certification.File, folder string) (*certification.StoredAsset, error) {
	if a.err != nil {
		return nil, a.err
	}
	body, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.uploads = append(a.uploads, upload{folder: folder, name: file.Name, body: string(body)})
	a.mu.Unlock()
	return &certification.StoredAsset{
		URL:      "https://assets.test/" + folder + "/" + file.Name,
		PublicID: folder + "/" + file.Name,
		FileName: file.Name,
		FileType: "application/pdf",
		Size:     int64(len(body)),
		HostedAt: models.HostedCloudinary,
	}, nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*models.Membership
	hits    int
	evicted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*models.Membership{}}
}

func (c *fakeCache) Get(_ context.Context, serial string) (*models.Membership, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[serial]
	if ok {
		c.hits++
	}
	return m, ok
}

func (c *fakeCache) Set(_ context.Context, m *models.Membership) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[m.SerialNo] = m
}

func (c *fakeCache) Evict(_ context.Context, serial string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, serial)
	c.evicted = append(c.evicted, serial)
}

type fixture struct {
	db       *gorm.DB
	svc      *certification.Service
	notifier *fakeNotifier
	assets   *fakeAssets
	cache    *fakeCache
	admin    certification.Actor
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newDB(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		db:       db,
		notifier: &fakeNotifier{},
		assets:   &fakeAssets{},
		cache:    newFakeCache(),
	}
	f.svc = certification.NewService(db, certification.Deps{
		Notifier:  f.notifier,
		Assets:    f.assets,
		Serials:   utils.NewSerialGenerator("SDSSN"),
		Cache:     f.cache,
		Renderer:  utils.HTMLCertificateRenderer{},
		Logger:    log,
		Now:       func() time.Time { return clock },
		VerifyURL: verifyURL,
	})

	admin := f.user(t, "Grace", "Admin", models.RoleAdmin)
	f.admin = certification.Actor{ID: admin.ID, Role: models.RoleAdmin}
	return f
}

func (f *fixture) user(t *testing.T, first, last, role string) *models.User {
	t.Helper()
	u := &models.User{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first+"."+last) + "@example.com",
		Role:      role,
		Password:  "x",
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) member(t *testing.T, first, last string) certification.Actor {
	t.Helper()
	u := f.user(t, first, last, models.RoleUser)
	return certification.Actor{ID: u.ID, Role: models.RoleUser}
}

func (f *fixture) certification(t *testing.T, name, kind string, duration int, unit string) *models.Certification {
	t.Helper()
	c := &models.Certification{Name: name, Type: kind, Duration: duration, DurationUnit: unit}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *fixture) submit(t *testing.T, actor certification.Actor, cert *models.Certification) *models.CertificationRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), actor, certification.SubmitInput{
		CertificationID:        cert.ID,
		ReasonForCertification: "Career progression",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) setStatus(t *testing.T, id uint, status string) (*models.CertificationRequest, error) {
	t.Helper()
	return f.svc.UpdateStatus(context.Background(), f.admin, id, certification.StatusInput{Status: status})
}

// approved submits and approves a request, returning its membership.
func (f *fixture) approved(t *testing.T, actor certification.Actor, cert *models.Certification) *models.Membership {
	t.Helper()
	req := f.submit(t, actor, cert)
	updated, err := f.setStatus(t, req.ID, models.RequestApproved)
	require.NoError(t, err)
	require.NotNil(t, updated.Membership)
	return updated.Membership
}

var errBoom = errors.New("boom")

func day(d datatypes.Date) string {
	return time.Time(d).Format("2006-01-02")
}
