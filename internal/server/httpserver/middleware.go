package httpserver

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const userLocalsKey = "user"

// errNotAuthenticated is returned when a protected route gets no bearer token.
var errNotAuthenticated = errors.New("not authenticated")

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(c *fiber.Ctx) (string, bool) {
	h := c.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the request's bearer token to a user.
func (s *HTTPServer) authenticate(c *fiber.Ctx) (*models.User, error) {
	token, ok := bearerToken(c)
	if !ok {
		return nil, errNotAuthenticated
	}
	return s.users.Authenticate(c.UserContext(), token)
}

// requireUser guards routes that need an existing user behind the token.
// A token whose user no longer exists is treated as invalid.
func (s *HTTPServer) requireUser(c *fiber.Ctx) error {
	user, err := s.authenticate(c)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return err
	}
	c.Locals(userLocalsKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocalsKey).(*models.User)
	return u
}

// requestLogger logs one line per request once the error handler has set
// the final status.
func (s *HTTPServer) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start).String(),
		"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
	)
	return nil
}
