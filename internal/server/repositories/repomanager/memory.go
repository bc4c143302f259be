package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/resources"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
)

// MemoryRepositoryManager serves process-local repositories. InTx calls are
// serialized against each other.
type MemoryRepositoryManager struct {
	mu        sync.Mutex
	users     *users.MemoryRepository
	resources *resources.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:     users.NewMemoryRepository(),
		resources: resources.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Resources() resources.Repository {
	return m.resources
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.users, m.resources)
}

func (m *MemoryRepositoryManager) Close(ctx context.Context) error {
	return nil
}
