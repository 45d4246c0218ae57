package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/recipes/internal/imagestore"
	"github.com/mmynk/recipes/internal/metrics"
	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

// RecipeService manages recipes and their tag and ingredient links.
type RecipeService struct {
	store  storage.Catalog
	images imagestore.Store
	logger *slog.Logger
}

// NewRecipeService creates a new RecipeService with the given storage backend.
func NewRecipeService(store storage.Catalog, images imagestore.Store, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:  store,
		images: images,
		logger: logger,
	}
}

// RecipeInput is a full recipe payload. Tags and Ingredients are names;
// unknown names are created for the owner.
type RecipeInput struct {
	Title       string
	TimeMinutes int
	Price       decimal.Decimal
	Description string
	Link        string
	Tags        []string
	Ingredients []string
}

// RecipePatch is a partial recipe payload. Nil fields are left unchanged;
// a non-nil Tags or Ingredients replaces the whole set.
type RecipePatch struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Description *string
	Link        *string
	Tags        *[]string
	Ingredients *[]string
}

// Create stores a new recipe for the owner.
func (s *RecipeService) Create(ctx context.Context, ownerID int64, in RecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{
		UserID:      ownerID,
		Title:       in.Title,
		TimeMinutes: in.TimeMinutes,
		Price:       in.Price,
		Description: in.Description,
		Link:        in.Link,
	}

	tags, err := byName(ownerID, in.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, err := byName(ownerID, in.Ingredients)
	if err != nil {
		return nil, err
	}
	recipe.Tags = models.TagsFrom(tags)
	recipe.Ingredients = models.IngredientsFrom(ingredients)

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		s.logger.Error("CreateRecipe failed", "user_id", ownerID, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation("recipe", "create")
	s.logger.Info("Recipe created", "user_id", ownerID, "recipe_id", recipe.ID)
	return recipe, nil
}

// Get returns one of the owner's recipes.
func (s *RecipeService) Get(ctx context.Context, ownerID, recipeID int64) (*models.Recipe, error) {
	return s.store.GetRecipe(ctx, ownerID, recipeID)
}

// List returns the owner's recipes, newest first.
func (s *RecipeService) List(ctx context.Context, ownerID int64, filter storage.RecipeFilter) ([]models.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, ownerID, filter)
	if err != nil {
		s.logger.Error("ListRecipes failed", "user_id", ownerID, "error", err)
		return nil, err
	}
	return recipes, nil
}

// Replace overwrites every field of the owner's recipe, including both relation sets.
func (s *RecipeService) Replace(ctx context.Context, ownerID, recipeID int64, in RecipeInput) (*models.Recipe, error) {
	tags, ingredients := in.Tags, in.Ingredients
	if tags == nil {
		tags = []string{}
	}
	if ingredients == nil {
		ingredients = []string{}
	}

	return s.Update(ctx, ownerID, recipeID, RecipePatch{
		Title:       &in.Title,
		TimeMinutes: &in.TimeMinutes,
		Price:       &in.Price,
		Description: &in.Description,
		Link:        &in.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	})
}

// Update applies a partial update to the owner's recipe.
func (s *RecipeService) Update(ctx context.Context, ownerID, recipeID int64, patch RecipePatch) (*models.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		recipe.Title = *patch.Title
	}
	if patch.TimeMinutes != nil {
		recipe.TimeMinutes = *patch.TimeMinutes
	}
	if patch.Price != nil {
		recipe.Price = *patch.Price
	}
	if patch.Description != nil {
		recipe.Description = *patch.Description
	}
	if patch.Link != nil {
		recipe.Link = *patch.Link
	}

	var upd storage.RecipeUpdate
	if patch.Tags != nil {
		tags, err := byName(ownerID, *patch.Tags)
		if err != nil {
			return nil, err
		}
		recipe.Tags = models.TagsFrom(tags)
		upd.ReplaceTags = true
	}
	if patch.Ingredients != nil {
		ingredients, err := byName(ownerID, *patch.Ingredients)
		if err != nil {
			return nil, err
		}
		recipe.Ingredients = models.IngredientsFrom(ingredients)
		upd.ReplaceIngredients = true
	}

	if err := s.store.UpdateRecipe(ctx, recipe, upd); err != nil {
		s.logger.Warn("UpdateRecipe failed", "user_id", ownerID, "recipe_id", recipeID, "error", err)
		return nil, err
	}

	metrics.RecordCatalogOperation("recipe", "update")
	s.logger.Info("Recipe updated", "user_id", ownerID, "recipe_id", recipeID)
	return recipe, nil
}

// Delete removes the owner's recipe and, best effort, its stored image.
func (s *RecipeService) Delete(ctx context.Context, ownerID, recipeID int64) error {
	recipe, err := s.store.GetRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, ownerID, recipeID); err != nil {
		s.logger.Warn("DeleteRecipe failed", "user_id", ownerID, "recipe_id", recipeID, "error", err)
		return err
	}
	s.removeImage(ctx, recipe.Image)

	metrics.RecordCatalogOperation("recipe", "delete")
	s.logger.Info("Recipe deleted", "user_id", ownerID, "recipe_id", recipeID)
	return nil
}

// UploadImage stores an image for the owner's recipe under a fresh
// uploads/recipe/<uuid>.<ext> path and replaces any previous image.
func (s *RecipeService) UploadImage(ctx context.Context, ownerID, recipeID int64, filename, contentType string, r io.Reader) (*models.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}

	key := models.RecipeImageFilePath(filename)
	if err := s.images.Save(ctx, key, r, contentType); err != nil {
		s.logger.Error("Image upload failed", "user_id", ownerID, "recipe_id", recipeID, "error", err)
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.store.SetRecipeImage(ctx, ownerID, recipeID, key); err != nil {
		s.removeImage(ctx, key)
		return nil, err
	}

	s.removeImage(ctx, recipe.Image)
	recipe.Image = key

	metrics.RecordCatalogOperation("recipe", "upload_image")
	s.logger.Info("Recipe image uploaded", "user_id", ownerID, "recipe_id", recipeID, "image", key)
	return recipe, nil
}

// byName turns names into unsaved attributes for the owner. The store matches
// or creates them inside the recipe transaction. Names are trimmed and repeats
// collapse to one entry.
func byName(ownerID int64, names []string) ([]models.Attribute, error) {
	attrs := make([]models.Attribute, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name, err := cleanName(name)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		attrs = append(attrs, models.Attribute{UserID: ownerID, Name: name})
	}
	return attrs, nil
}

func (s *RecipeService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove image", "image", key, "error", err)
	}
}
