package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"sdssn/config"
	"sdssn/database"
	"sdssn/models"
	"sdssn/services/certification"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTKey: "test-secret"}
	t.Cleanup(func() { config.AppConfig = prev })
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		certification.ErrValidation:              fiber.StatusUnprocessableEntity,
		certification.ErrDuplicateActiveRequest:  fiber.StatusConflict,
		certification.ErrDuplicateRequestForType: fiber.StatusConflict,
		certification.ErrAlreadyIssued:           fiber.StatusConflict,
		certification.ErrInvalidTransition:       fiber.StatusForbidden,
		certification.ErrAlreadyApproved:         fiber.StatusForbidden,
		certification.ErrForbiddenDelete:         fiber.StatusForbidden,
		certification.ErrNotFound:                fiber.StatusNotFound,
		certification.ErrNotActive:               fiber.StatusBadRequest,
		certification.ErrAssetUploadFailed:       fiber.StatusInternalServerError,
		fmt.Errorf("driver: bad connection"):     fiber.StatusInternalServerError,
	}
	for kind, want := range cases {
		err := &certification.Error{Kind: kind, Message: "x"}
		assert.Equal(t, want, StatusFor(err), kind.Error())
	}
}

func TestErrorResponse(t *testing.T) {
	app := fiber.New()
	app.Get("/validation", func(c *fiber.Ctx) error {
		return ErrorResponse(c, &certification.Error{
			Kind:    certification.ErrValidation,
			Message: "Validation failed!",
			Fields:  map[string]string{"status": "Status is required!"},
		})
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return ErrorResponse(c, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed!", body["message"])
	assert.Equal(t, map[string]interface{}{"status": "Status is required!"}, body["error"])
	assert.NotContains(t, body, "data")

	resp, err = app.Test(httptest.NewRequest("GET", "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTMiddleware(t *testing.T) {
	setTestConfig(t)

	app := fiber.New()
	app.Get("/me", JWTMiddleware, func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"id": actor.ID, "role": actor.Role})
	})

	token, err := GenerateJWT(7, "Ada Obi", models.RoleAdmin, "ada@example.com")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"not bearer", "Token " + token, fiber.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusOK {
				body := decode(t, resp.Body)
				assert.EqualValues(t, 7, body["id"])
				assert.Equal(t, models.RoleAdmin, body["role"])
			}
		})
	}
}

func TestJWTMiddlewareRejectsForeignSecret(t *testing.T) {
	setTestConfig(t)
	token, err := GenerateJWT(7, "Ada Obi", models.RoleUser, "ada@example.com")
	require.NoError(t, err)

	config.AppConfig.JWTKey = "rotated"
	app := fiber.New()
	app.Get("/me", JWTMiddleware, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	db, err := database.OpenSQLite("file:middleware_admin?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	prev := database.Database
	database.Database = database.DbInstance{Db: db}
	t.Cleanup(func() { database.Database = prev })

	admin := models.User{FirstName: "Grace", Email: "grace@example.com", Role: models.RoleAdmin, Password: "x"}
	blocked := models.User{FirstName: "Ivy", Email: "ivy@example.com", Role: models.RoleAdmin, Password: "x", IsBlocked: true}
	member := models.User{FirstName: "Ada", Email: "ada@example.com", Role: models.RoleUser, Password: "x"}
	for _, u := range []*models.User{&admin, &blocked, &member} {
		require.NoError(t, db.Create(u).Error)
	}

	app := fiber.New()
	app.Get("/admin/:uid", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("uid")
		if id > 0 {
			c.Locals("userId", uint(id))
		}
		return c.Next()
	}, AdminOnly, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	cases := map[string]int{
		fmt.Sprint(admin.ID):   fiber.StatusOK,
		fmt.Sprint(blocked.ID): fiber.StatusForbidden,
		fmt.Sprint(member.ID):  fiber.StatusForbidden,
		"999":                  fiber.StatusUnauthorized,
		"0":                    fiber.StatusUnauthorized,
	}
	for uid, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", "/admin/"+uid, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, uid)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	app := fiber.New()
	app.Get("/verify", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/verify", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}
