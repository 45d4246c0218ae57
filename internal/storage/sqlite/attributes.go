package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

// attrTables names the tables backing one attribute kind.
type attrTables struct {
	table      string // attribute rows
	join       string // recipe link rows
	joinColumn string // attribute column in the join table
}

func tablesFor(kind models.AttributeKind) (attrTables, error) {
	switch kind {
	case models.KindTag:
		return attrTables{table: "tags", join: "recipe_tags", joinColumn: "tag_id"}, nil
	case models.KindIngredient:
		return attrTables{table: "ingredients", join: "recipe_ingredients", joinColumn: "ingredient_id"}, nil
	default:
		return attrTables{}, fmt.Errorf("unknown attribute kind %q", kind)
	}
}

// CreateAttribute inserts a tag or ingredient. attr.ID is populated by the store.
func (s *SQLiteStore) CreateAttribute(ctx context.Context, kind models.AttributeKind, attr *models.Attribute) error {
	return createAttribute(ctx, s.db, kind, attr)
}

func createAttribute(ctx context.Context, db dbtx, kind models.AttributeKind, attr *models.Attribute) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO "+t.table+" (user_id, name) VALUES (?, ?)",
		attr.UserID, attr.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", kind, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read %s ID: %w", kind, err)
	}
	attr.ID = id
	return nil
}

// GetOrCreateAttribute looks up the owner's attribute by exact name and creates it when missing.
func (s *SQLiteStore) GetOrCreateAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, name string) (*models.Attribute, error) {
	var attr *models.Attribute
	err := withTx(ctx, s.db, func(tx dbtx) error {
		var err error
		attr, err = getOrCreateAttribute(ctx, tx, ownerID, kind, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return attr, nil
}

func getOrCreateAttribute(ctx context.Context, db dbtx, ownerID int64, kind models.AttributeKind, name string) (*models.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	found := &models.Attribute{}
	err = db.QueryRowContext(ctx,
		"SELECT id, user_id, name FROM "+t.table+" WHERE user_id = ? AND name = ? ORDER BY id LIMIT 1",
		ownerID, name,
	).Scan(&found.ID, &found.UserID, &found.Name)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up %s: %w", kind, err)
	}

	created := &models.Attribute{UserID: ownerID, Name: name}
	if err := createAttribute(ctx, db, kind, created); err != nil {
		return nil, err
	}
	return created, nil
}

// GetAttribute retrieves one of the owner's attributes by ID.
func (s *SQLiteStore) GetAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64) (*models.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	attr := &models.Attribute{}
	err = s.db.QueryRowContext(ctx,
		"SELECT id, user_id, name FROM "+t.table+" WHERE id = ? AND user_id = ?",
		id, ownerID,
	).Scan(&attr.ID, &attr.UserID, &attr.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return attr, nil
}

// ListAttributes returns the owner's attributes ordered by name, descending.
// With filter.AssignedOnly it joins through the recipe links and collapses
// duplicates, so an attribute used by several recipes appears once.
func (s *SQLiteStore) ListAttributes(ctx context.Context, ownerID int64, kind models.AttributeKind, filter storage.ListFilter) ([]models.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	query := "SELECT a.id, a.user_id, a.name FROM " + t.table + " a WHERE a.user_id = ?"
	if filter.AssignedOnly {
		query = "SELECT DISTINCT a.id, a.user_id, a.name FROM " + t.table + " a" +
			" JOIN " + t.join + " j ON j." + t.joinColumn + " = a.id" +
			" WHERE a.user_id = ?"
	}
	query += " ORDER BY a.name DESC, a.id DESC"

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer rows.Close()

	attrs := []models.Attribute{}
	for rows.Next() {
		var attr models.Attribute
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
	}

	return attrs, nil
}

// UpdateAttribute renames one of the owner's attributes.
func (s *SQLiteStore) UpdateAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64, name string) (*models.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE "+t.table+" SET name = ? WHERE id = ? AND user_id = ?",
		name, id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}

	return &models.Attribute{ID: id, UserID: ownerID, Name: name}, nil
}

// DeleteAttribute removes one of the owner's attributes and its recipe links.
func (s *SQLiteStore) DeleteAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, id int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+t.table+" WHERE id = ? AND user_id = ?",
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return checkAffected(res)
}

// LinkAttribute attaches an attribute to a recipe. Both must belong to ownerID,
// otherwise storage.ErrNotFound is returned. Linking twice is a no-op.
func (s *SQLiteStore) LinkAttribute(ctx context.Context, ownerID int64, kind models.AttributeKind, recipeID, attrID int64) error {
	return linkAttribute(ctx, s.db, ownerID, kind, recipeID, attrID)
}

func linkAttribute(ctx context.Context, db dbtx, ownerID int64, kind models.AttributeKind, recipeID, attrID int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	// The SELECT yields a row only when both sides exist and share the owner.
	var ok int
	err = db.QueryRowContext(ctx,
		"SELECT 1 FROM recipes r JOIN "+t.table+" a ON a.user_id = r.user_id"+
			" WHERE r.id = ? AND a.id = ? AND r.user_id = ?",
		recipeID, attrID, ownerID,
	).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check %s link: %w", kind, err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+t.join+" (recipe_id, "+t.joinColumn+") VALUES (?, ?)",
		recipeID, attrID,
	)
	if err != nil {
		return fmt.Errorf("failed to link %s: %w", kind, err)
	}
	return nil
}

// attachAttribute links attr to the recipe. An attr without an ID is resolved
// by name first, creating it for the owner when missing.
func attachAttribute(ctx context.Context, db dbtx, ownerID int64, kind models.AttributeKind, recipeID int64, attr models.Attribute) error {
	if attr.ID == 0 {
		resolved, err := getOrCreateAttribute(ctx, db, ownerID, kind, attr.Name)
		if err != nil {
			return err
		}
		attr = *resolved
	}
	return linkAttribute(ctx, db, ownerID, kind, recipeID, attr.ID)
}

// ClearAttributes detaches every attribute of kind from the owner's recipe.
func (s *SQLiteStore) ClearAttributes(ctx context.Context, ownerID int64, kind models.AttributeKind, recipeID int64) error {
	return clearAttributes(ctx, s.db, ownerID, kind, recipeID)
}

func clearAttributes(ctx context.Context, db dbtx, ownerID int64, kind models.AttributeKind, recipeID int64) error {
	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	if err := recipeExists(ctx, db, ownerID, recipeID); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, "DELETE FROM "+t.join+" WHERE recipe_id = ?", recipeID)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", kind, err)
	}
	return nil
}

// recipeAttributes loads the attributes of kind linked to a recipe, ordered by name.
func recipeAttributes(ctx context.Context, db dbtx, kind models.AttributeKind, recipeID int64) ([]models.Attribute, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT a.id, a.user_id, a.name FROM "+t.table+" a"+
			" JOIN "+t.join+" j ON j."+t.joinColumn+" = a.id"+
			" WHERE j.recipe_id = ? ORDER BY a.name, a.id",
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", kind, err)
	}
	defer rows.Close()

	var attrs []models.Attribute
	for rows.Next() {
		var attr models.Attribute
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, fmt.Errorf("failed to scan recipe %s: %w", kind, err)
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe %s: %w", kind, err)
	}
	return attrs, nil
}
