package httpserver

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps an error to an HTTP status and a client-safe message.
// Credential and token failures never carry internal detail.
func statusFor(err error) (int, string) {
	var fe *fiber.Error

	switch {
	case errors.Is(err, common.ErrDuplicateIdentity):
		return fiber.StatusBadRequest, "Email already registered"
	case errors.Is(err, common.ErrIdenticalPassword):
		return fiber.StatusBadRequest, "New password must be different from the old password"
	case errors.Is(err, common.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
		return fiber.StatusBadRequest, msg
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrInvalidToken):
		return fiber.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, errNotAuthenticated):
		return fiber.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "User not found"
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)

	if code >= fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	if code == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, common.BearerScheme)
	}

	return c.Status(code).JSON(errorResponse{Detail: msg})
}
