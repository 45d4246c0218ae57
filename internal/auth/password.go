package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrEmailRequired      = errors.New("user must have an email address")
)

// minPasswordLength is enforced on registration and password changes.
const minPasswordLength = 8

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
// It also acts as the user manager: every account is created through CreateUser.
type PasswordAuthenticator struct {
	storage UserStorage
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// CreateUser normalizes the email, hashes the password and saves a new active user.
// An empty email fails with ErrEmailRequired. No password policy is applied here.
func (a *PasswordAuthenticator) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return a.createUser(ctx, email, password, name, false)
}

// CreateSuperuser creates a user with staff and superuser flags set.
func (a *PasswordAuthenticator) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return a.createUser(ctx, email, password, "", true)
}

func (a *PasswordAuthenticator) createUser(ctx context.Context, email, password, name string, superuser bool) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}

	user := models.NewUser(email, name, "")
	user.IsStaff = superuser
	user.IsSuperuser = superuser

	// Check if email already exists
	existing, err := a.storage.GetUserByEmail(ctx, user.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Save to storage
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Register creates a new user account after checking password strength.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, name, credential string) (*models.User, error) {
	// Validate password strength
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}
	return a.CreateUser(ctx, email, credential, name)
}

// Authenticate verifies the email and password, returning the user if valid.
// Inactive accounts are rejected like wrong passwords.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	// Get user by email
	user, err := a.storage.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive || !user.CheckPassword(credential) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser loads an active user by ID. Unknown and inactive users yield ErrInvalidToken,
// since an ID normally comes from a token.
func (a *PasswordAuthenticator) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := a.storage.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// ProfileUpdate holds the fields a user may change on their own account.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// UpdateProfile applies upd to the user's account.
func (a *PasswordAuthenticator) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error) {
	user, err := a.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		if strings.TrimSpace(*upd.Email) == "" {
			return nil, ErrEmailRequired
		}
		user.Email = models.NormalizeEmail(*upd.Email)
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Password != nil {
		if err := a.ValidateCredential(*upd.Password); err != nil {
			return nil, err
		}
		if err := user.SetPassword(*upd.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	user.UpdatedAt = time.Now().Unix()
	if err := a.storage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
