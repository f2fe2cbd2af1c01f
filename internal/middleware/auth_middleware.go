package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"usersvc/internal/common"
	"usersvc/internal/models"
	"usersvc/internal/security"
)

// CallerKey is the Fiber locals key holding the authenticated security.Caller.
const CallerKey = "caller"

// Authenticator resolves credentials to a caller.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (security.Caller, error)
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

// AuthRequired is a Fiber middleware that accepts a Bearer token or Basic
// credentials and stores the caller in the request's user context.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
		}

		scheme, credentials, ok := strings.Cut(authHeader, " ")
		if !ok || credentials == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>' or 'Basic <credentials>'")
		}

		var (
			caller security.Caller
			err    error
		)
		switch strings.ToLower(scheme) {
		case "bearer":
			caller, err = auth.ValidateToken(c.UserContext(), credentials)
			if errors.Is(err, common.ErrUnauthorized) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
			}
			if err != nil {
				return err
			}
		case "basic":
			caller, err = basicCaller(c.UserContext(), auth, credentials)
			if err != nil {
				return err
			}
		default:
			return fiber.NewError(fiber.StatusUnauthorized, "Unsupported authorization scheme")
		}

		c.SetUserContext(security.WithCaller(c.UserContext(), caller))
		c.Locals(CallerKey, caller)
		return c.Next()
	}
}

func basicCaller(ctx context.Context, auth Authenticator, credentials string) (security.Caller, error) {
	raw, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return security.Caller{}, fiber.NewError(fiber.StatusUnauthorized, "Malformed basic credentials")
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return security.Caller{}, fiber.NewError(fiber.StatusUnauthorized, "Malformed basic credentials")
	}

	account, err := auth.Authenticate(ctx, username, password)
	if errors.Is(err, common.ErrInvalidCredentials) {
		return security.Caller{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return security.Caller{}, err
	}
	return security.Caller{Username: account.Username, Roles: account.Roles.Clone()}, nil
}
