package services

import (
	"context"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/progress"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
)

// ProgressService applies onboarding-progress transitions with a
// version-checked write.
type ProgressService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProgressService(m repomanager.RepositoryManager, logger logging.Logger) *ProgressService {
	return &ProgressService{repomanager: m, logger: logger}
}

// MarkPageComplete returns the sorted completed-pages set after the update.
func (s *ProgressService) MarkPageComplete(ctx context.Context, userID string, page int) ([]int, error) {
	if err := progress.ValidatePage(page); err != nil {
		return nil, err
	}
	u, err := updateUser(ctx, s.repomanager.Users(), s.logger, userID, "Error updating progress", progress.MarkComplete(page))
	if err != nil {
		return nil, err
	}
	return u.CompletedPages, nil
}

func (s *ProgressService) MarkPageIncomplete(ctx context.Context, userID string, page int) ([]int, error) {
	if err := progress.ValidatePage(page); err != nil {
		return nil, err
	}
	u, err := updateUser(ctx, s.repomanager.Users(), s.logger, userID, "Error updating progress", progress.MarkIncomplete(page))
	if err != nil {
		return nil, err
	}
	return u.CompletedPages, nil
}

// SaveGitHubUsername stores the username and completes page 1.
func (s *ProgressService) SaveGitHubUsername(ctx context.Context, userID, username string, clearPrevious bool) ([]int, error) {
	return s.saveLinked(ctx, userID, progress.GitHubUsername, username, clearPrevious, "Error saving GitHub username")
}

// SaveMicrosoftLearnEmail stores the lowercased email and completes page 2.
func (s *ProgressService) SaveMicrosoftLearnEmail(ctx context.Context, userID, email string, clearPrevious bool) ([]int, error) {
	return s.saveLinked(ctx, userID, progress.MicrosoftLearnEmail, email, clearPrevious, "Error saving Microsoft Learn email")
}

func (s *ProgressService) saveLinked(ctx context.Context, userID string, f progress.LinkedField, value string, clearPrevious bool, failMsg string) ([]int, error) {
	if err := f.Validate(value); err != nil {
		return nil, err
	}
	u, err := updateUser(ctx, s.repomanager.Users(), s.logger, userID, failMsg, f.Save(value, clearPrevious))
	if err != nil {
		return nil, err
	}
	return u.CompletedPages, nil
}

func (s *ProgressService) UpdateLastViewedPage(ctx context.Context, userID string, page int) (int, error) {
	if err := progress.ValidatePage(page); err != nil {
		return 0, err
	}
	u, err := updateUser(ctx, s.repomanager.Users(), s.logger, userID, "Error updating last viewed page", progress.UpdateLastViewed(page))
	if err != nil {
		return 0, err
	}
	return u.LastViewedPage, nil
}
