package users

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    map[string]*models.User{},
		byEmail: map[string]string{},
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := u.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	if stored.CompletedPages == nil {
		stored.CompletedPages = []int{}
	}
	if stored.CompletedResources == nil {
		stored.CompletedResources = []string{}
	}

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID

	return stored.Clone(), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := u.Clone()
	c.PasswordHash = ""
	return c, nil
}

func (r *MemoryRepository) UpdateProgress(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[u.ID]
	if !ok || stored.Version != u.Version {
		return common.ErrVersionConflict
	}

	stored.GitHubUsername = u.GitHubUsername
	stored.MicrosoftLearnEmail = u.MicrosoftLearnEmail
	stored.CompletedPages = slices.Clone(u.CompletedPages)
	stored.LastViewedPage = u.LastViewedPage
	stored.CompletedResources = slices.Clone(u.CompletedResources)
	stored.Version++
	stored.UpdatedAt = r.now().UTC()

	u.Version = stored.Version
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) PullCompletedResource(ctx context.Context, resourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if slices.Contains(u.CompletedResources, resourceID) {
			u.CompletedResources = slices.DeleteFunc(u.CompletedResources, func(s string) bool { return s == resourceID })
			u.Version++
		}
	}
	return nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *MemoryRepository) CompletionStats(ctx context.Context) (models.CompletionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var st models.CompletionStats
	for _, u := range r.byID {
		n := int64(len(u.CompletedResources))
		st.TotalCompletions += n
		if n > 0 {
			st.UsersWithCompletions++
		}
	}
	if len(r.byID) > 0 {
		st.AvgCompletions = float64(st.TotalCompletions) / float64(len(r.byID))
	}
	return st, nil
}
