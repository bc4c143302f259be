// Package repomanager vends the repositories of one storage backend and runs
// multi-repository writes as a unit where the backend allows it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/resources"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
)

// TxFunc receives repositories bound to the running unit of work.
type TxFunc func(ctx context.Context, u users.Repository, r resources.Repository) error

type RepositoryManager interface {
	Users() users.Repository
	Resources() resources.Repository
	InTx(ctx context.Context, fn TxFunc) error
	Close(ctx context.Context) error
}
