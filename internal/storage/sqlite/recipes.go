package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.description, r.link, r.image`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.TimeMinutes,
		&recipe.Price,
		&recipe.Description,
		&recipe.Link,
		&recipe.Image,
	)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateRecipe persists a new recipe and its tag and ingredient links in one
// transaction. Tags and ingredients without an ID are found or created by name
// in that same transaction.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return withTx(ctx, s.db, func(tx dbtx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (user_id, title, time_minutes, price, description, link, image)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipe.UserID,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(2),
			recipe.Description,
			recipe.Link,
			recipe.Image,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read recipe ID: %w", err)
		}
		recipe.ID = id

		if err := attachTags(ctx, tx, recipe); err != nil {
			return err
		}
		if err := attachIngredients(ctx, tx, recipe); err != nil {
			return err
		}

		return loadRelations(ctx, tx, recipe)
	})
}

// GetRecipe retrieves one of the owner's recipes with its tags and ingredients.
func (s *SQLiteStore) GetRecipe(ctx context.Context, ownerID, recipeID int64) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes r WHERE r.id = ? AND r.user_id = ?",
		recipeID, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := loadRelations(ctx, s.db, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// ListRecipes returns the owner's recipes, newest first.
func (s *SQLiteStore) ListRecipes(ctx context.Context, ownerID int64, filter storage.RecipeFilter) ([]models.Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipes r WHERE r.user_id = ?"
	args := []any{ownerID}

	if len(filter.TagIDs) > 0 {
		query += " AND r.id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (" + placeholders(len(filter.TagIDs)) + "))"
		for _, id := range filter.TagIDs {
			args = append(args, id)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		query += " AND r.id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (" + placeholders(len(filter.IngredientIDs)) + "))"
		for _, id := range filter.IngredientIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY r.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	rows.Close()

	for i := range recipes {
		if err := loadRelations(ctx, s.db, &recipes[i]); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

// UpdateRecipe saves the recipe's scalar fields and, when upd asks for it,
// replaces its tag and ingredient links with recipe.Tags and recipe.Ingredients.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, recipe *models.Recipe, upd storage.RecipeUpdate) error {
	return withTx(ctx, s.db, func(tx dbtx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET title = ?, time_minutes = ?, price = ?, description = ?, link = ?
			 WHERE id = ? AND user_id = ?`,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(2),
			recipe.Description,
			recipe.Link,
			recipe.ID,
			recipe.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}

		if upd.ReplaceTags {
			if err := clearAttributes(ctx, tx, recipe.UserID, models.KindTag, recipe.ID); err != nil {
				return err
			}
			if err := attachTags(ctx, tx, recipe); err != nil {
				return err
			}
		}
		if upd.ReplaceIngredients {
			if err := clearAttributes(ctx, tx, recipe.UserID, models.KindIngredient, recipe.ID); err != nil {
				return err
			}
			if err := attachIngredients(ctx, tx, recipe); err != nil {
				return err
			}
		}

		return loadRelations(ctx, tx, recipe)
	})
}

// DeleteRecipe removes one of the owner's recipes. Links go with it.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, ownerID, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM recipes WHERE id = ? AND user_id = ?",
		recipeID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return checkAffected(res)
}

// SetRecipeImage records the storage path of the recipe's image.
func (s *SQLiteStore) SetRecipeImage(ctx context.Context, ownerID, recipeID int64, image string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE recipes SET image = ? WHERE id = ? AND user_id = ?",
		image, recipeID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set recipe image: %w", err)
	}
	return checkAffected(res)
}

func recipeExists(ctx context.Context, db dbtx, ownerID, recipeID int64) error {
	var ok int
	err := db.QueryRowContext(ctx,
		"SELECT 1 FROM recipes WHERE id = ? AND user_id = ?",
		recipeID, ownerID,
	).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check recipe: %w", err)
	}
	return nil
}

func attachTags(ctx context.Context, db dbtx, recipe *models.Recipe) error {
	for _, tag := range recipe.Tags {
		if err := attachAttribute(ctx, db, recipe.UserID, models.KindTag, recipe.ID, models.Attribute(tag)); err != nil {
			return err
		}
	}
	return nil
}

func attachIngredients(ctx context.Context, db dbtx, recipe *models.Recipe) error {
	for _, ingredient := range recipe.Ingredients {
		if err := attachAttribute(ctx, db, recipe.UserID, models.KindIngredient, recipe.ID, models.Attribute(ingredient)); err != nil {
			return err
		}
	}
	return nil
}

func loadRelations(ctx context.Context, db dbtx, recipe *models.Recipe) error {
	tags, err := recipeAttributes(ctx, db, models.KindTag, recipe.ID)
	if err != nil {
		return err
	}
	ingredients, err := recipeAttributes(ctx, db, models.KindIngredient, recipe.ID)
	if err != nil {
		return err
	}
	recipe.Tags = models.TagsFrom(tags)
	recipe.Ingredients = models.IngredientsFrom(ingredients)
	return nil
}
