// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/recipes/internal/models"
)

// ErrNotFound is returned when a record does not exist or is not owned by the caller.
// Foreign records are indistinguishable from missing ones.
var ErrNotFound = errors.New("not found")

// ListFilter narrows tag and ingredient listings.
type ListFilter struct {
	// AssignedOnly keeps only attributes linked to at least one recipe.
	// Each attribute is returned once however many recipes use it.
	AssignedOnly bool
}

// RecipeFilter narrows recipe listings. A recipe matches when it is linked to
// any of the given tags and any of the given ingredients. Empty slices do not filter.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeUpdate says which relations UpdateRecipe rewrites. Relations not
// selected keep their current links.
type RecipeUpdate struct {
	ReplaceTags        bool
	ReplaceIngredients bool
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. The user.ID field will be populated by the store.
	// Returns an error wrapping ErrEmailTaken if the normalized email is in use.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by normalized email. Returns ErrNotFound if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateUser saves name, email, password hash and flags of an existing user.
	UpdateUser(ctx context.Context, user *models.User) error
}

// Catalog persists recipes, tags and ingredients. Every method takes the
// owner's user ID and only ever touches that owner's records.
type Catalog interface {
	// CreateRecipe inserts recipe and links its Tags and Ingredients.
	// recipe.UserID is the owner; linked attributes must belong to the same user.
	// Entries with a zero ID are matched by name and created when missing. The
	// whole call is atomic: on error no recipe, attribute or link is left behind.
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	GetRecipe(ctx context.Context, ownerID, recipeID int64) (*models.Recipe, error)
	ListRecipes(ctx context.Context, ownerID int64, filter RecipeFilter) ([]models.Recipe, error)
	// UpdateRecipe saves the scalar fields of recipe and rewrites the relations
	// selected by upd, resolving zero-ID entries like CreateRecipe. It is atomic.
	UpdateRecipe(ctx context.Context, recipe *models.Recipe, upd RecipeUpdate) error
	DeleteRecipe(ctx context.Context, ownerID, recipeID int64) error
	SetRecipeImage(ctx context.Context, ownerID, recipeID int64, image string) error

	CreateAttribute(ctx context.Context, kind models.AttributeKind, attr *models.Attribute) error
	// GetOrCreateAttribute returns the owner's attribute with the given name, creating it if needed.
	GetOrCreateAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, name string) (*models.Attribute, error)
	GetAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64) (*models.Attribute, error)
	// ListAttributes returns the owner's attributes ordered by name, descending.
	ListAttributes(ctx context.Context, ownerID int64, kind models.AttributeKind, filter ListFilter) ([]models.Attribute, error)
	UpdateAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64, name string) (*models.Attribute, error)
	DeleteAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64) error

	// LinkAttribute adds a recipe↔attribute link. Both records must belong to ownerID.
	LinkAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, recipeID, attrID int64) error
	// ClearAttributes removes every link of the given kind from the recipe.
	ClearAttributes(ctx context.Context, ownerID int64, kind models.AttributeKind, recipeID int64) error
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	Catalog

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrEmailTaken is returned by CreateUser and UpdateUser on a duplicate email.
var ErrEmailTaken = errors.New("email already in use")
