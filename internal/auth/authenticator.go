package auth

import (
	"context"

	"github.com/mmynk/recipes/internal/models"
)

// Authenticator covers the account operations exposed over HTTP: sign-up,
// sign-in, and reading or editing the signed-in user's profile.
type Authenticator interface {
	// Register creates an active, non-staff account. Passwords shorter than
	// eight characters fail with ErrWeakPassword.
	Register(ctx context.Context, email, name, password string) (*models.User, error)

	// Authenticate returns the account for email if password matches and the
	// account is active, and ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// GetUser loads an active account; anything else is ErrInvalidToken.
	GetUser(ctx context.Context, id int64) (*models.User, error)

	UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error)
}
