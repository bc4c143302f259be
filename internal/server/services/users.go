// Package services contains the server-side business logic behind the REST
// handlers: registration and login, onboarding progress and the resource
// catalog.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/dmitrijs2005/onboardkit/internal/server/progress"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token   string
	Email   string
	IsAdmin bool
}

// UserService handles registration, login and admin account maintenance.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	tokens      *auth.TokenIssuer
	admins      auth.AdminList
	logger      logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, hasher *auth.Hasher, tokens *auth.TokenIssuer,
	admins auth.AdminList, logger logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		admins:      admins,
		logger:      logger,
	}
}

// Register creates a user with a hashed password. The email is normalized
// before the duplicate check and the write.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if email == "" || password == "" {
		s.logger.Warn(ctx, "registration rejected", "cause", "missing_fields")
		return nil, common.Validation("Email and password are required")
	}

	normalized := auth.NormalizeEmail(email)
	if !progress.IsValidEmail(normalized) {
		s.logger.Warn(ctx, "registration rejected", "cause", "invalid_email")
		return nil, common.Validation("Invalid email format")
	}

	repo := s.repomanager.Users()

	if _, err := repo.FindByEmail(ctx, normalized); err == nil {
		s.logger.Warn(ctx, "registration rejected", "cause", "duplicate", "email", normalized)
		return nil, common.Conflict("User already exists")
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.Internal("Internal server error", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := repo.Create(ctx, &models.User{
		Email:          normalized,
		PasswordHash:   hash,
		Name:           name,
		LastViewedPage: models.DefaultLastViewedPage,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict("User already exists")
		}
		return nil, common.Internal("Internal server error", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, common.Validation("Email and password are required")
	}

	if !s.tokens.Configured() {
		s.logger.Error(ctx, "login failed", "cause", "missing_secret")
		return nil, common.Configuration("Server configuration error", auth.ErrMissingSecret)
	}

	normalized := auth.NormalizeEmail(email)
	u, err := s.repomanager.Users().FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed", "cause", "unknown_email")
			return nil, common.Unauthorized("Invalid credentials")
		}
		return nil, common.Internal("Login error", err)
	}

	if u.PasswordHash == "" {
		s.logger.Error(ctx, "login failed", "cause", "no_password", "user_id", u.ID)
		return nil, common.Internal("User account error", nil)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.logger.Warn(ctx, "login failed", "cause", "wrong_password", "user_id", u.ID)
		return nil, common.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, common.Internal("Token generation failed", err)
	}

	return &LoginResult{Token: token, Email: u.Email, IsAdmin: s.admins.IsAdmin(u.Email)}, nil
}

// IsAdmin reports whether email is on the admin allow-list.
func (s *UserService) IsAdmin(email string) bool {
	return s.admins.IsAdmin(email)
}

// CreateOrResetUser creates the account, or replaces the password of an
// existing one. It reports whether a new account was created.
func (s *UserService) CreateOrResetUser(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, common.Validation("Email and password are required")
	}
	normalized := auth.NormalizeEmail(email)
	if !progress.IsValidEmail(normalized) {
		return false, common.Validation("Invalid email format")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	repo := s.repomanager.Users()
	existing, err := repo.FindByEmail(ctx, normalized)
	switch {
	case err == nil:
		if err := repo.SetPassword(ctx, existing.ID, hash); err != nil {
			return false, common.Internal("Error updating password", err)
		}
		s.logger.Info(ctx, "password reset", "user_id", existing.ID)
		return false, nil
	case errors.Is(err, common.ErrorNotFound):
		u, err := repo.Create(ctx, &models.User{
			Email:          normalized,
			PasswordHash:   hash,
			LastViewedPage: models.DefaultLastViewedPage,
		})
		if err != nil {
			return false, common.Internal("Error creating user", err)
		}
		s.logger.Info(ctx, "user created", "user_id", u.ID)
		return true, nil
	default:
		return false, common.Internal("Error looking up user", err)
	}
}
