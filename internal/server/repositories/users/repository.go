package users

import (
	"context"

	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

// Repository is the credential store. Lookups return common.ErrorNotFound
// when no row matches; Create returns common.ErrDuplicateIdentity when the
// email is already taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]*models.User, error)
}
