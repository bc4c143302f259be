// Package users persists credential records and their onboarding progress.
package users

import (
	"context"

	"github.com/dmitrijs2005/onboardkit/internal/server/models"
)

// Repository is the Credential Store.
//
// Emails are expected to be normalized by the caller. FindByEmail returns the
// password credential, FindByID never does. UpdateProgress writes the progress
// fields only when the stored version equals u.Version and returns
// common.ErrVersionConflict otherwise; on success u.Version is incremented.
type Repository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProgress(ctx context.Context, u *models.User) error
	SetPassword(ctx context.Context, id string, passwordHash string) error
	PullCompletedResource(ctx context.Context, resourceID string) error
	Count(ctx context.Context) (int64, error)
	CompletionStats(ctx context.Context) (models.CompletionStats, error)
}
