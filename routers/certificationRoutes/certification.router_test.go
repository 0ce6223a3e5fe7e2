package certificationRoutes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sdssn/config"
	certificationControllers "sdssn/controllers/certification"
	membershipControllers "sdssn/controllers/membership"
	"sdssn/database"
	"sdssn/middleware"
	"sdssn/models"
	"sdssn/routers/membershipRoutes"
	"sdssn/services/certification"
	"sdssn/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Meta    *certification.PageMeta `json:"meta"`
}

type testServer struct {
	app   *fiber.App
	admin string
	ada   string
	ben   string
	cert  *models.Certification
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	prevCfg := config.AppConfig
	config.AppConfig = &config.Config{JWTKey: "route-test-secret"}
	t.Cleanup(func() { config.AppConfig = prevCfg })

	db, err := database.OpenSQLite(fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	prevDB := database.Database
	database.Database = database.DbInstance{Db: db}
	t.Cleanup(func() { database.Database = prevDB })

	log, _ := test.NewNullLogger()
	svc := certification.NewService(db, certification.Deps{
		Notifier:  &utils.MailNotifier{Mailer: &utils.LogMailer{Log: log}},
		Assets:    &utils.LocalAssetStore{Dir: t.TempDir(), BaseURL: "http://localhost/uploads"},
		Serials:   utils.NewSerialGenerator("SDSSN"),
		Renderer:  utils.HTMLCertificateRenderer{},
		Logger:    log,
		VerifyURL: "https://sdssn.test/verify/",
	})
	certificationControllers.Init(svc)
	membershipControllers.Init(svc)

	s := &testServer{app: fiber.New()}
	SetupCertificationRoutes(s.app)
	membershipRoutes.SetupMembershipRoutes(s.app, func(c *fiber.Ctx) error { return c.Next() })

	for _, u := range []struct {
		first, role string
		token       *string
	}{
		{"Grace", models.RoleAdmin, &s.admin},
		{"Ada", models.RoleUser, &s.ada},
		{"Ben", models.RoleUser, &s.ben},
	} {
		user := &models.User{FirstName: u.first, LastName: "Test", Email: u.first + "@example.com", Role: u.role, Password: "x"}
		require.NoError(t, db.Create(user).Error)
		*u.token, err = middleware.GenerateJWT(user.ID, user.FullName(), user.Role, user.Email)
		require.NoError(t, err)
	}

	s.cert = &models.Certification{Name: "Professional Member", Type: "professional", Duration: 1, DurationUnit: models.DurationYears}
	require.NoError(t, db.Create(s.cert).Error)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.app.Test(req, int(10*time.Second/time.Millisecond))
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) submit(t *testing.T, token string, certID uint) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("certification_id", fmt.Sprint(certID)))
	require.NoError(t, w.WriteField("reason_for_certification", "Career progression"))
	part, err := w.CreateFormFile("credential", "licence.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return s.do(t, http.MethodPost, "/certification-requests/", token, &buf, w.FormDataContentType())
}

func TestCertificationRequestFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.submit(t, s.ada, s.cert.ID)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var created models.CertificationRequest
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RequestPending, created.Status)
	require.NotNil(t, created.CredentialID)

	status, env = s.submit(t, s.ada, s.cert.ID)
	assert.Equal(t, fiber.StatusConflict, status, env.Message)

	path := fmt.Sprintf("/certification-requests/%d", created.ID)

	status, _ = s.do(t, http.MethodGet, path, s.ben, nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(t, http.MethodGet, path, s.ada, nil, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, path+"/approve", s.ada, nil, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, http.MethodPost, path+"/approve", s.admin, nil, "")
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var approved models.CertificationRequest
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, models.RequestApproved, approved.Status)
	require.NotNil(t, approved.Membership)
	serial := approved.Membership.SerialNo
	assert.Regexp(t, `^SDSSN[0-9A-F]{13}$`, serial)

	status, _ = s.do(t, http.MethodPost, path+"/approve", s.admin, nil, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(t, http.MethodGet, "/certification-requests/?status=approved", s.admin, nil, "")
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)

	// Public verification only succeeds once the membership is paid.
	status, _ = s.do(t, http.MethodGet, "/memberships/verify/"+serial, "", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	markPaid := fmt.Sprintf("/memberships/%d/mark-paid", approved.Membership.ID)
	status, env = s.do(t, http.MethodPost, markPaid, s.admin, bytes.NewBufferString(`{"payment_reference":"PAY-001"}`), fiber.MIMEApplicationJSON)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, env = s.do(t, http.MethodGet, "/memberships/verify/"+serial, "", nil, "")
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var verified models.Membership
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, models.MembershipPaid, verified.Status)

	status, env = s.do(t, http.MethodGet, path, s.admin, nil, "")
	require.Equal(t, fiber.StatusOK, status)
	var paid models.CertificationRequest
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, models.RequestPaid, paid.Status)
}

func TestCertificationRequestValidation(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/certification-requests/mine", "", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPut, "/certification-requests/abc/status", s.admin, bytes.NewBufferString(`{"status":"approved"}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)

	status, env = s.do(t, http.MethodPut, "/certification-requests/1/status", s.admin, bytes.NewBufferString(`{"status":"archived"}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Contains(t, fields, "status")

	status, _ = s.do(t, http.MethodPut, "/certification-requests/42/status", s.admin, bytes.NewBufferString(`{"status":"approved"}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusNotFound, status)
}
