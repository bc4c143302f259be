package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/onboardkit/internal/server/config"
)

// New builds the manager selected by cfg.StorageType.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageType {
	case config.StorageMongo:
		m, err := NewMongoRepositoryManager(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.StoragePostgres:
		m, err := NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.StorageMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}
