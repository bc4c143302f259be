package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/progress"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
)

// MaxUpdateAttempts bounds the read-modify-write loop of a progress update.
const MaxUpdateAttempts = 3

// updateUser re-reads the record and re-applies m until the versioned write
// succeeds or MaxUpdateAttempts conflicts in a row are seen. Store errors
// are returned at once.
func updateUser(ctx context.Context, repo users.Repository, log logging.Logger, userID string, failMsg string, m progress.Mutation) (*models.User, error) {
	for attempt := 1; ; attempt++ {
		u, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.NotFound("User not found")
			}
			return nil, common.Internal(failMsg, err)
		}

		if err := m(u); err != nil {
			return nil, err
		}

		err = repo.UpdateProgress(ctx, u)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return nil, common.Internal(failMsg, err)
		}

		log.Debug(ctx, "progress update conflict", "user_id", userID, "attempt", attempt)
		if attempt >= MaxUpdateAttempts {
			return nil, &common.Error{
				Kind:    common.ErrVersionConflict,
				Message: "Progress was updated concurrently, please retry",
				Err:     err,
			}
		}
	}
}
