package httpserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type messageResponse struct {
	Message string `json:"message"`
}

type signupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Password  string `json:"password"`
}

// loginRequest accepts both a JSON body and an OAuth2 password form, where
// the email travels as "username".
type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type profileRequest struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
}

type profileResponse struct {
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdat"`
}

type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdat"`
}

// parseBody decodes the request body into out. An empty body leaves out
// untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrValidation)
	}
	return nil
}

func (s *HTTPServer) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "OK"})
}

func (s *HTTPServer) signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	s.logger.Info(c.UserContext(), "Registration request")

	_, err := s.users.Signup(c.UserContext(), services.SignupInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: "User registered successfully"})
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	tok, err := s.users.Login(c.UserContext(), identifier, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{AccessToken: tok.AccessToken, TokenType: tok.TokenType})
}

// changePassword runs in session mode when a bearer token is sent and in
// password-proof mode (email in the body) otherwise.
func (s *HTTPServer) changePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()

	if _, ok := bearerToken(c); ok {
		user, err := s.authenticate(c)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		if err != nil {
			return err
		}
		if err := s.users.ChangePasswordForUser(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
			return err
		}
	} else if err := s.users.ChangePassword(ctx, req.Email, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: "Password updated successfully"})
}

// updateProfile validates the body before looking at the token, so an empty
// update is rejected with 400 whatever the credentials.
func (s *HTTPServer) updateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	upd := services.ProfileUpdate{FirstName: req.FirstName, LastName: req.LastName}
	if err := upd.Validate(); err != nil {
		return err
	}

	user, err := s.authenticate(c)
	if err != nil {
		return err
	}

	updated, err := s.users.UpdateProfile(c.UserContext(), user.ID, upd)
	if err != nil {
		return err
	}

	return c.JSON(profileResponse{
		FirstName: updated.FirstName,
		LastName:  updated.LastName,
		Email:     updated.Email,
		CreatedAt: updated.CreatedAt,
	})
}

// listUsers serves any authenticated caller; there is no admin role.
func (s *HTTPServer) listUsers(c *fiber.Ctx) error {
	list, err := s.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	s.logger.Debug(c.UserContext(), "users listed", "by", currentUser(c).ID, "count", len(list))

	return c.JSON(toUserResponses(list))
}

func toUserResponses(list []*models.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, userResponse{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		})
	}
	return out
}
