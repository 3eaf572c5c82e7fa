// Package httpserver exposes the account operations over HTTP using fiber.
package httpserver

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*services.AccessToken, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	ChangePasswordForUser(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type HTTPServer struct {
	address string
	prefix  string
	users   UserService
	logger  logging.Logger
	app     *fiber.App
}

func NewHTTPServer(address, prefix string, l logging.Logger, us UserService) *HTTPServer {
	s := &HTTPServer{
		address: address,
		prefix:  prefix,
		users:   us,
		logger:  l.With("module", "http_server"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "userkeeper",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.traceRequests)
	s.app.Use(s.requestLogger)
	s.registerRoutes()

	return s
}

func (s *HTTPServer) registerRoutes() {
	r := s.app.Group(s.prefix)

	r.Get("/ping", s.ping)
	r.Post("/signup", s.signup)
	r.Post("/login", s.login)
	r.Put("/change-password", s.changePassword)
	r.Put("/profile/update", s.updateProfile)
	r.Get("/admin/users", s.requireUser, s.listUsers)
}

// App returns the underlying fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address, "prefix", s.prefix)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}
