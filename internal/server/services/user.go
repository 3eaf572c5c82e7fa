// Package services contains server-side business logic. This file implements
// UserService: registration, credential checks, bearer-token issuance,
// password and profile changes, and the user listing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/dbx"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/password"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/users"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const (
	nameMaxLength = 100
	// TokenTypeBearer is the only token type handed out by Login.
	TokenTypeBearer = "bearer"
)

// AccessToken is the result of a successful Login.
type AccessToken struct {
	AccessToken string
	TokenType   string
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func (in SignupInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, nameMaxLength)),
		validation.Field(&in.Password, validation.Required),
	)
	return asValidationError(err)
}

// ProfileUpdate is a partial profile change. Nil and empty fields are left
// untouched, but at least one field has to carry a value.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

func (p ProfileUpdate) Validate() error {
	if isBlank(p.FirstName) && isBlank(p.LastName) {
		return fmt.Errorf("%w: at least one field (firstname or lastname) is required", common.ErrValidation)
	}
	err := validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Length(0, nameMaxLength)),
		validation.Field(&p.LastName, validation.Length(0, nameMaxLength)),
	)
	return asValidationError(err)
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrValidation, err)
}

// UserService implements the account operations on top of the users
// repository, the password hasher and the token service.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	tokens      *auth.TokenService
	logger      logging.Logger

	now       func() time.Time
	newID     func() string
	dummyHash string
}

// NewUserService constructs a UserService. The hasher produces a throwaway
// hash up front so that logins for unknown emails still pay for one
// verification.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher password.Hasher,
	tokens *auth.TokenService, logger logging.Logger) (*UserService, error) {

	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("%w: password hasher: %v", common.ErrConfiguration, err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "services.user"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		dummyHash:   dummy,
	}, nil
}

// Signup registers a new account. No token is issued.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateIdentity
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "signup lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, common.ErrValidation) {
		return nil, err
	}
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           s.newID(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		// a concurrent signup with the same email loses on the unique constraint
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, common.ErrDuplicateIdentity
		}
		s.logger.Error(ctx, "user create failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks identifier (an email) and password and returns a bearer token.
// Unknown identifiers and wrong passwords both yield ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, identifier, pass string) (*AccessToken, error) {
	if identifier == "" || pass == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	user, err := s.checkCredentials(ctx, s.repomanager.Users(s.db), identifier, pass)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(map[string]any{
		auth.ClaimUserID: user.ID,
		auth.ClaimEmail:  user.Email,
	})
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &AccessToken{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// checkCredentials resolves email to a user whose hash matches pass.
func (s *UserService) checkCredentials(ctx context.Context, repo users.Repository, email, pass string) (*models.User, error) {
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(pass, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "credential lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !s.hasher.Verify(pass, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// ChangePassword replaces the password of the account identified by email,
// after proving knowledge of oldPassword.
func (s *UserService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	return s.changePassword(ctx, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetUserByEmail(ctx, email)
	}, oldPassword, newPassword)
}

// ChangePasswordForUser is ChangePassword for a caller already identified by
// a bearer token. The old password is still required.
func (s *UserService) ChangePasswordForUser(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changePassword(ctx, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetUserByID(ctx, userID)
	}, oldPassword, newPassword)
}

func (s *UserService) changePassword(ctx context.Context,
	lookup func(context.Context, dbx.DBTX) (*models.User, error),
	oldPassword, newPassword string) error {

	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password are required", common.ErrValidation)
	}

	var userID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := lookup(ctx, tx)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.hasher.Verify(oldPassword, s.dummyHash)
				return common.ErrorUnauthorized
			}
			return err
		}
		if !s.hasher.Verify(oldPassword, user.PasswordHash) {
			return common.ErrorUnauthorized
		}
		if s.hasher.Verify(newPassword, user.PasswordHash) {
			return common.ErrIdenticalPassword
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		userID = user.ID
		return s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash)
	})

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) ||
			errors.Is(err, common.ErrIdenticalPassword) ||
			errors.Is(err, common.ErrValidation) {
			return err
		}
		s.logger.Error(ctx, "password change failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// UpdateProfile applies the non-empty fields of upd to the user and returns
// the updated record.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !isBlank(upd.FirstName) {
			user.FirstName = *upd.FirstName
		}
		if !isBlank(upd.LastName) {
			user.LastName = *upd.LastName
		}
		if err := repo.UpdateProfile(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "profile update failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	return updated, nil
}

// ListUsers returns every account, oldest first. Callers are expected to
// have authenticated the request; no role is checked.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list users failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Authenticate resolves a bearer token to its user. Token problems yield
// ErrInvalidToken; a valid token for a vanished user yields ErrorNotFound.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	userID, ok := auth.UserIDFromClaims(claims)
	if !ok {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "token user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}
