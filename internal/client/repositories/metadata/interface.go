package metadata

import (
	"context"
)

// Repository is a small key/value store for client session state.
// Get returns common.ErrorNotFound for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
