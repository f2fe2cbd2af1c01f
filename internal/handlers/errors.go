package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"usersvc/internal/common"
)

// AuthChallenge is sent in WWW-Authenticate with every 401 response.
const AuthChallenge = `Bearer realm="usersvc", Basic realm="usersvc"`

// ErrorHandler translates errors returned by handlers into JSON responses.
// Validation errors become 422 with one entry per field; unknown errors are
// logged and reported as 500 without detail.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(verr.Fields)
		}

		status, message := statusOf(err)
		switch {
		case status == fiber.StatusUnauthorized:
			c.Set(fiber.HeaderWWWAuthenticate, AuthChallenge)
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(status).JSON(fiber.Map{
			"status":  status,
			"message": message,
		})
	}
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, "Resource not found"
	case errors.Is(err, common.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, common.ErrUnauthorized):
		return fiber.StatusUnauthorized, "You can only update your own details. Admin can update all users."
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden, "Access denied"
	case errors.Is(err, common.ErrConflict):
		return fiber.StatusConflict, "Username already taken"
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
