// Package resources persists the learning-resource catalog.
package resources

import (
	"context"

	"github.com/dmitrijs2005/onboardkit/internal/server/models"
)

// Repository stores catalog entries. List and Recent return the newest first.
// Lookups of unknown or malformed ids return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, r *models.Resource) (*models.Resource, error)
	Get(ctx context.Context, id string) (*models.Resource, error)
	Update(ctx context.Context, r *models.Resource) (*models.Resource, error)
	Delete(ctx context.Context, id string) error
	// SetAttachmentKey records the object key of the resource's attachment.
	SetAttachmentKey(ctx context.Context, id, key string) error
	List(ctx context.Context) ([]*models.Resource, error)
	Recent(ctx context.Context, limit int) ([]*models.Resource, error)
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]models.TypeCount, error)
}
