package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/userkeeper/internal/dbx"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager hands out one shared in-memory users repository
// regardless of the DBTX passed in, so transactions opened by callers are
// no-ops for the data it holds.
type InMemoryRepositoryManager struct {
	users *users.InMemoryRepository
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

// Store exposes the underlying repository.
func (m *InMemoryRepositoryManager) Store() *users.InMemoryRepository {
	return m.users
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewInMemoryRepository()}
}
