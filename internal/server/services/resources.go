package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/objectstore"
	"github.com/dmitrijs2005/onboardkit/internal/server/progress"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/resources"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
)

// RecentResourcesLimit is the size of the analytics "recent" list.
const RecentResourcesLimit = 5

// ResourceView is a catalog entry as seen by one user.
type ResourceView struct {
	*models.Resource
	Completed bool
}

// Analytics summarizes the catalog for admins.
type Analytics struct {
	TotalResources  int64
	TotalUsers      int64
	ResourcesByType []models.TypeCount
	CompletionStats models.CompletionStats
	RecentResources []*models.Resource
}

type ResourceService struct {
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	logger      logging.Logger
}

func NewResourceService(m repomanager.RepositoryManager, store objectstore.Store, logger logging.Logger) *ResourceService {
	return &ResourceService{repomanager: m, store: store, logger: logger}
}

// List returns every resource, newest first, flagged with the caller's
// completion state.
func (s *ResourceService) List(ctx context.Context, user *models.User) ([]ResourceView, error) {
	list, err := s.repomanager.Resources().List(ctx)
	if err != nil {
		return nil, common.Internal("Error fetching resources", err)
	}
	s.resolveCreators(ctx, list)

	out := make([]ResourceView, 0, len(list))
	for _, r := range list {
		out = append(out, ResourceView{Resource: r, Completed: user.HasCompletedResource(r.ID)})
	}
	return out, nil
}

func validateType(t models.ResourceType) error {
	if !t.Valid() {
		return common.Validation("Invalid resource type")
	}
	return nil
}

// Create adds a resource owned by creator. All fields are required.
func (s *ResourceService) Create(ctx context.Context, creator *models.User, in models.ResourcePatch) (*models.Resource, error) {
	if in.Title == "" || in.Description == "" || in.Type == "" || in.URL == "" {
		return nil, common.Validation("All fields are required")
	}
	if err := validateType(in.Type); err != nil {
		return nil, err
	}

	r, err := s.repomanager.Resources().Create(ctx, &models.Resource{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		URL:         in.URL,
		CreatedBy:   creator.ID,
	})
	if err != nil {
		return nil, common.Internal("Error creating resource", err)
	}
	r.CreatedByEmail = creator.Email

	s.logger.Info(ctx, "resource created", "resource_id", r.ID, "user_id", creator.ID)
	return r, nil
}

// Update applies the non-empty fields of patch.
func (s *ResourceService) Update(ctx context.Context, id string, patch models.ResourcePatch) (*models.Resource, error) {
	repo := s.repomanager.Resources()

	r, err := repo.Get(ctx, id)
	if err != nil {
		return nil, resourceLookupError(err, "Error updating resource")
	}

	if patch.Type != "" {
		if err := validateType(patch.Type); err != nil {
			return nil, err
		}
	}
	patch.Apply(r)

	updated, err := repo.Update(ctx, r)
	if err != nil {
		return nil, resourceLookupError(err, "Error updating resource")
	}
	s.resolveCreators(ctx, []*models.Resource{updated})
	return updated, nil
}

// Delete removes the resource and every user's completion of it. The stored
// attachment is removed afterwards; failing that only logs.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	var attachmentKey string
	err := s.repomanager.InTx(ctx, func(ctx context.Context, u users.Repository, r resources.Repository) error {
		existing, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		attachmentKey = existing.AttachmentKey
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
		return u.PullCompletedResource(ctx, id)
	})
	if err != nil {
		return resourceLookupError(err, "Error deleting resource")
	}

	s.removeAttachment(ctx, id, attachmentKey)
	s.logger.Info(ctx, "resource deleted", "resource_id", id)
	return nil
}

func (s *ResourceService) removeAttachment(ctx context.Context, resourceID, key string) {
	if key == "" {
		return
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		s.logger.Warn(ctx, "remove attachment", "resource_id", resourceID, "key", key, "error", err)
	}
}

// ToggleCompletion flips the caller's completion of a resource and returns
// the new state.
//
// A resource deleted between the lookup and the write would leave a dangling
// completion, so the resource is looked up again after marking it complete
// and the completion is withdrawn if it is gone.
func (s *ResourceService) ToggleCompletion(ctx context.Context, userID, resourceID string) (bool, error) {
	const failMsg = "Error toggling resource completion"
	res := s.repomanager.Resources()

	if _, err := res.Get(ctx, resourceID); err != nil {
		return false, resourceLookupError(err, failMsg)
	}

	var completed bool
	_, err := updateUser(ctx, s.repomanager.Users(), s.logger, userID, failMsg,
		progress.ToggleResource(resourceID, &completed))
	if err != nil {
		return false, err
	}
	if !completed {
		return false, nil
	}

	if _, err := res.Get(ctx, resourceID); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return false, common.Internal(failMsg, err)
		}
		if err := s.repomanager.Users().PullCompletedResource(ctx, resourceID); err != nil {
			return false, common.Internal(failMsg, err)
		}
		s.logger.Warn(ctx, "resource deleted while completing", "resource_id", resourceID, "user_id", userID)
		return false, common.NotFound("Resource not found")
	}
	return true, nil
}

func (s *ResourceService) Analytics(ctx context.Context) (*Analytics, error) {
	const failMsg = "Error fetching analytics"
	res := s.repomanager.Resources()
	usr := s.repomanager.Users()

	a := &Analytics{}
	var err error

	if a.TotalResources, err = res.Count(ctx); err != nil {
		return nil, common.Internal(failMsg, err)
	}
	if a.TotalUsers, err = usr.Count(ctx); err != nil {
		return nil, common.Internal(failMsg, err)
	}
	if a.ResourcesByType, err = res.CountByType(ctx); err != nil {
		return nil, common.Internal(failMsg, err)
	}
	if a.CompletionStats, err = usr.CompletionStats(ctx); err != nil {
		return nil, common.Internal(failMsg, err)
	}
	if a.RecentResources, err = res.Recent(ctx, RecentResourcesLimit); err != nil {
		return nil, common.Internal(failMsg, err)
	}
	s.resolveCreators(ctx, a.RecentResources)

	return a, nil
}

// PresignUpload returns an upload URL for an attachment of an existing
// resource and records the issued key on it. An attachment issued earlier is
// replaced.
func (s *ResourceService) PresignUpload(ctx context.Context, resourceID string) (*objectstore.PresignedUpload, error) {
	const failMsg = "Error creating upload URL"
	repo := s.repomanager.Resources()

	r, err := repo.Get(ctx, resourceID)
	if err != nil {
		return nil, resourceLookupError(err, failMsg)
	}

	up, err := s.store.PresignUpload(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if err := repo.SetAttachmentKey(ctx, resourceID, up.Key); err != nil {
		return nil, resourceLookupError(err, failMsg)
	}

	if r.AttachmentKey != "" && r.AttachmentKey != up.Key {
		s.removeAttachment(ctx, resourceID, r.AttachmentKey)
	}
	return up, nil
}

// resolveCreators fills CreatedByEmail. Creators that cannot be resolved are
// left blank.
func (s *ResourceService) resolveCreators(ctx context.Context, list []*models.Resource) {
	repo := s.repomanager.Users()
	emails := map[string]string{}

	for _, r := range list {
		if r.CreatedBy == "" {
			continue
		}
		email, ok := emails[r.CreatedBy]
		if !ok {
			if u, err := repo.FindByID(ctx, r.CreatedBy); err == nil {
				email = u.Email
			} else if !errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(ctx, "resolve resource creator", "user_id", r.CreatedBy, "error", err)
			}
			emails[r.CreatedBy] = email
		}
		r.CreatedByEmail = email
	}
}

func resourceLookupError(err error, failMsg string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound("Resource not found")
	}
	return common.Internal(failMsg, err)
}
