package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/metrics"
	"github.com/mmynk/recipes/internal/models"
)

// AuthService implements account registration, token issue and profile management.
type AuthService struct {
	users  auth.Authenticator
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users auth.Authenticator, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	s.logger.Info("Register request", "email", email)

	user, err := s.users.Register(ctx, email, name, password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation("user", "create")
	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Token authenticates a user and returns a signed token.
func (s *AuthService) Token(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return "", err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return token, nil
}

// UpdateMe changes the authenticated user's email, name or password.
func (s *AuthService) UpdateMe(ctx context.Context, userID int64, upd auth.ProfileUpdate) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		s.logger.Warn("Profile update failed", "user_id", userID, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation("user", "update")
	s.logger.Info("Profile updated", "user_id", userID)
	return user, nil
}
