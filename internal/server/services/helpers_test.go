package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/objectstore"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// hookedUsers wraps a users.Repository and lets a test intercept calls.
type hookedUsers struct {
	users.Repository
	findByID       func(ctx context.Context, id string) (*models.User, error)
	findByEmail    func(ctx context.Context, email string) (*models.User, error)
	updateProgress func(ctx context.Context, u *models.User) error
}

func (h *hookedUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if h.findByID != nil {
		return h.findByID(ctx, id)
	}
	return h.Repository.FindByID(ctx, id)
}

func (h *hookedUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if h.findByEmail != nil {
		return h.findByEmail(ctx, email)
	}
	return h.Repository.FindByEmail(ctx, email)
}

func (h *hookedUsers) UpdateProgress(ctx context.Context, u *models.User) error {
	if h.updateProgress != nil {
		return h.updateProgress(ctx, u)
	}
	return h.Repository.UpdateProgress(ctx, u)
}

// hookedManager serves a replaced users repository on top of the memory
// manager.
type hookedManager struct {
	*repomanager.MemoryRepositoryManager
	users *hookedUsers
}

func newHookedManager() *hookedManager {
	mem := repomanager.NewMemoryRepositoryManager()
	return &hookedManager{MemoryRepositoryManager: mem, users: &hookedUsers{Repository: mem.Users()}}
}

func (m *hookedManager) Users() users.Repository { return m.users }

// fakeStore issues numbered keys and records deletions.
type fakeStore struct {
	gotID     string
	issued    int
	deleted   []string
	err       error
	deleteErr error
}

func (f *fakeStore) PresignUpload(ctx context.Context, resourceID string) (*objectstore.PresignedUpload, error) {
	f.gotID = resourceID
	if f.err != nil {
		return nil, f.err
	}
	f.issued++
	key := fmt.Sprintf("resources/%s/%d", resourceID, f.issued)
	return &objectstore.PresignedUpload{Key: key, URL: "http://s3/put", ExpiresAt: time.Unix(0, 0)}, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func newUserService(m repomanager.RepositoryManager, secret string, admins ...string) *UserService {
	list := auth.AdminList{}
	for _, a := range admins {
		list[auth.NormalizeEmail(a)] = struct{}{}
	}
	return NewUserService(m, auth.NewHasher(4), auth.NewTokenIssuer(secret, time.Hour), list, logging.NewNopLogger())
}

func mustRegister(t *testing.T, s *UserService, email string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), email, "secret123", "")
	require.NoError(t, err)
	return u
}
