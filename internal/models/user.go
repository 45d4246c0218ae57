package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user.
	ID int64

	// Email is the user's normalized email address (unique).
	// Used for login.
	Email string

	// Name is the display name of the user.
	Name string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	IsActive    bool
	IsStaff     bool
	IsSuperuser bool

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the account.
	UpdatedAt int64
}

// NewUser creates a new active user with the given email, name and password hash.
// The email is normalized; validation is the caller's job.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetPassword replaces the stored hash with a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().Unix()
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// NormalizeEmail lowercases the domain part of an email address.
// The local part is kept as given, since mailbox names may be case sensitive.
// Addresses without an "@" are returned trimmed but otherwise unchanged.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
