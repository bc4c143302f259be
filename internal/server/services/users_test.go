package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenLogin_TokenResolvesToSameUser(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	s := newUserService(m, testSecret)

	u, err := s.Register(ctx, "  A@B.com ", "secret123", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, auth.CredentialHash, auth.ClassifyCredential(u.PasswordHash))
	assert.Equal(t, 1, u.LastViewedPage)

	res, err := s.Login(ctx, "a@b.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", res.Email)
	assert.False(t, res.IsAdmin)

	claims, err := auth.NewTokenIssuer(testSecret, 0).Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestRegister_Validation(t *testing.T) {
	s := newUserService(repomanager.NewMemoryRepositoryManager(), testSecret)

	_, err := s.Register(context.Background(), "", "x", "")
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "Email and password are required", common.MessageOf(err))

	_, err = s.Register(context.Background(), "nope", "x", "")
	assert.Equal(t, "Invalid email format", common.MessageOf(err))
}

func TestRegister_Duplicate(t *testing.T) {
	s := newUserService(repomanager.NewMemoryRepositoryManager(), testSecret)
	mustRegister(t, s, "a@b.com")

	_, err := s.Register(context.Background(), "A@b.com", "other", "")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Equal(t, "User already exists", common.MessageOf(err))
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := newUserService(repomanager.NewMemoryRepositoryManager(), testSecret)

	_, err := s.Register(context.Background(), "a@b.com", strings.Repeat("x", 100), "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRegister_StoreError(t *testing.T) {
	m := newHookedManager()
	m.users.findByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return nil, errors.New("db down")
	}
	s := newUserService(m, testSecret)

	_, err := s.Register(context.Background(), "a@b.com", "x", "")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, "Internal server error", common.MessageOf(err))
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	s := newUserService(m, testSecret)
	mustRegister(t, s, "a@b.com")

	_, err := s.Login(ctx, "a@b.com", "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Login(ctx, "ghost@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, "Invalid credentials", common.MessageOf(err))

	_, err = s.Login(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, "Invalid credentials", common.MessageOf(err))
}

func TestLogin_MissingSecret(t *testing.T) {
	s := newUserService(repomanager.NewMemoryRepositoryManager(), "")

	_, err := s.Login(context.Background(), "a@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrorConfiguration)
	assert.Equal(t, "Server configuration error", common.MessageOf(err))
}

func TestLogin_LegacyPlaintextAndMissingPassword(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	_, err := m.Users().Create(ctx, &models.User{Email: "legacy@b.com", PasswordHash: "plain-pass"})
	require.NoError(t, err)
	_, err = m.Users().Create(ctx, &models.User{Email: "empty@b.com"})
	require.NoError(t, err)

	s := newUserService(m, testSecret, "LEGACY@b.com")

	res, err := s.Login(ctx, "legacy@b.com", "plain-pass")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	_, err = s.Login(ctx, "legacy@b.com", "plain-pass ")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "empty@b.com", "anything")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Equal(t, "User account error", common.MessageOf(err))
}

func TestCreateOrResetUser(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	s := newUserService(m, testSecret)

	created, err := s.CreateOrResetUser(ctx, "Ops@B.com", "first")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateOrResetUser(ctx, "ops@b.com", "second")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.Login(ctx, "ops@b.com", "first")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = s.Login(ctx, "ops@b.com", "second")
	assert.NoError(t, err)

	_, err = s.CreateOrResetUser(ctx, "bad", "x")
	assert.ErrorIs(t, err, common.ErrorValidation)
}
