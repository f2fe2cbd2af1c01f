package middleware_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"usersvc/internal/common"
	"usersvc/internal/middleware"
	"usersvc/internal/models"
	"usersvc/internal/security"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) ValidateToken(ctx context.Context, token string) (security.Caller, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(security.Caller), args.Error(1)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func newApp(auth middleware.Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", middleware.AuthRequired(auth), func(c *fiber.Ctx) error {
		caller, ok := security.CallerFrom(c.UserContext())
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(caller.Username + ":" + caller.Roles.String())
	})
	return app
}

func call(t *testing.T, app *fiber.App, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAuthRequired_Bearer(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("ValidateToken", mock.Anything, "good").Return(security.Caller{
		Username: "karl",
		Roles:    models.NewRoleSet(models.RoleUser),
	}, nil)
	auth.On("ValidateToken", mock.Anything, "bad").Return(security.Caller{}, common.ErrUnauthorized)
	app := newApp(auth)

	status, body := call(t, app, "Bearer good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "karl:USER", body)

	status, _ = call(t, app, "Bearer bad")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthRequired_BearerStoreError(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("ValidateToken", mock.Anything, "good").Return(security.Caller{}, errors.New("db down"))
	app := newApp(auth)

	status, _ := call(t, app, "Bearer good")
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestAuthRequired_Basic(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "admin", "password").Return(&models.Account{
		Username: "admin",
		Roles:    models.NewRoleSet(models.RoleAdmin),
	}, nil)
	auth.On("Authenticate", mock.Anything, "admin", "wrong").Return(nil, common.ErrInvalidCredentials)
	auth.On("Authenticate", mock.Anything, "boom", "x").Return(nil, errors.New("db down"))
	app := newApp(auth)

	status, body := call(t, app, basic("admin", "password"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin:ADMIN", body)

	status, _ = call(t, app, basic("admin", "wrong"))
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, basic("boom", "x"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestAuthRequired_Rejects(t *testing.T) {
	app := newApp(new(MockAuthenticator))

	for name, header := range map[string]string{
		"missing":        "",
		"no credentials": "Bearer",
		"unknown scheme": "Digest abc",
		"bad base64":     "Basic !!!",
		"no colon":       "Basic " + base64.StdEncoding.EncodeToString([]byte("admin")),
	} {
		t.Run(name, func(t *testing.T) {
			status, _ := call(t, app, header)
			assert.Equal(t, fiber.StatusUnauthorized, status)
		})
	}
}
