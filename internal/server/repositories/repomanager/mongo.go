package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/resources"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoRepositoryManager struct {
	client    *mongo.Client
	users     *users.MongoRepository
	resources *resources.MongoRepository
}

// NewMongoRepositoryManager connects to uri, pings the primary and makes sure
// the collection indexes exist.
func NewMongoRepositoryManager(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	m := &MongoRepositoryManager{
		client:    client,
		users:     users.NewMongoRepository(db),
		resources: resources.NewMongoRepository(db),
	}

	if err := m.users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := m.resources.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) Resources() resources.Repository {
	return m.resources
}

// InTx runs fn against the plain collections. Multi-document transactions
// need a replica set, which standalone deployments lack, so the steps are
// applied in order and the first error stops the sequence.
func (m *MongoRepositoryManager) InTx(ctx context.Context, fn TxFunc) error {
	return fn(ctx, m.users, m.resources)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
