package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/storage"
)

// newTestStore creates a store backed by a fresh database in a temp directory.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "recipes-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
		os.RemoveAll(tempDir)
	})
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func createAttr(t *testing.T, store *SQLiteStore, kind models.AttributeKind, ownerID int64, name string) *models.Attribute {
	t.Helper()
	attr := &models.Attribute{UserID: ownerID, Name: name}
	if err := store.CreateAttribute(context.Background(), kind, attr); err != nil {
		t.Fatalf("CreateAttribute failed: %v", err)
	}
	return attr
}

func createRecipe(t *testing.T, store *SQLiteStore, ownerID int64, title string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		UserID:      ownerID,
		Title:       title,
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("4.50"),
	}
	if err := store.CreateRecipe(context.Background(), recipe); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	return recipe
}

func names(attrs []models.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}

func TestNew_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "recipes.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database file at %s: %v", path, err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser assigns ID", func(t *testing.T) {
		user := createUser(t, store, "user@example.com")
		if user.ID == 0 {
			t.Error("Expected user ID to be generated")
		}

		got, err := store.GetUserByEmail(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != user.ID || !got.IsActive {
			t.Errorf("Unexpected user: %+v", got)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("user@EXAMPLE.com", "", "hash"))
		if !errors.Is(err, storage.ErrEmailTaken) {
			t.Errorf("Expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := store.GetUserByID(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateUser saves flags", func(t *testing.T) {
		user := createUser(t, store, "admin@example.com")
		user.IsStaff = true
		user.IsSuperuser = true
		user.Name = "Admin"
		if err := store.UpdateUser(ctx, user); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if !got.IsStaff || !got.IsSuperuser || got.Name != "Admin" {
			t.Errorf("Update not persisted: %+v", got)
		}
	})
}

func TestAttributes(t *testing.T) {
	for _, kind := range []models.AttributeKind{models.KindTag, models.KindIngredient} {
		t.Run(string(kind), func(t *testing.T) {
			store := newTestStore(t)
			ctx := context.Background()
			user := createUser(t, store, "test@example.com")
			other := createUser(t, store, "user2@example.com")

			t.Run("list is ordered by name descending", func(t *testing.T) {
				createAttr(t, store, kind, user.ID, "kale")
				createAttr(t, store, kind, user.ID, "salt")
				createAttr(t, store, kind, user.ID, "basil")

				attrs, err := store.ListAttributes(ctx, user.ID, kind, storage.ListFilter{})
				if err != nil {
					t.Fatalf("ListAttributes failed: %v", err)
				}
				got := names(attrs)
				want := []string{"salt", "kale", "basil"}
				if len(got) != len(want) {
					t.Fatalf("Expected %v, got %v", want, got)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
					}
				}
			})

			t.Run("list is limited to owner", func(t *testing.T) {
				createAttr(t, store, kind, other.ID, "Salt")
				createAttr(t, store, kind, other.ID, "Pepper")

				attrs, err := store.ListAttributes(ctx, other.ID, kind, storage.ListFilter{})
				if err != nil {
					t.Fatalf("ListAttributes failed: %v", err)
				}
				if len(attrs) != 2 {
					t.Errorf("Expected 2 attributes, got %v", names(attrs))
				}
				for _, a := range attrs {
					if a.UserID != other.ID {
						t.Errorf("Got attribute of user %d", a.UserID)
					}
				}
			})

			t.Run("foreign records look missing", func(t *testing.T) {
				foreign := createAttr(t, store, kind, other.ID, "secret")

				if _, err := store.GetAttribute(ctx, user.ID, kind, foreign.ID); !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("Get: expected ErrNotFound, got %v", err)
				}
				if _, err := store.UpdateAttribute(ctx, user.ID, kind, foreign.ID, "mine"); !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("Update: expected ErrNotFound, got %v", err)
				}
				if err := store.DeleteAttribute(ctx, user.ID, kind, foreign.ID); !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("Delete: expected ErrNotFound, got %v", err)
				}

				still, err := store.GetAttribute(ctx, other.ID, kind, foreign.ID)
				if err != nil || still.Name != "secret" {
					t.Errorf("Foreign attribute changed: %+v, %v", still, err)
				}
			})

			t.Run("update and delete", func(t *testing.T) {
				attr := createAttr(t, store, kind, user.ID, "mirchi")

				updated, err := store.UpdateAttribute(ctx, user.ID, kind, attr.ID, "chinni")
				if err != nil {
					t.Fatalf("UpdateAttribute failed: %v", err)
				}
				if updated.Name != "chinni" || updated.UserID != user.ID {
					t.Errorf("Unexpected update result: %+v", updated)
				}

				if err := store.DeleteAttribute(ctx, user.ID, kind, attr.ID); err != nil {
					t.Fatalf("DeleteAttribute failed: %v", err)
				}
				if _, err := store.GetAttribute(ctx, user.ID, kind, attr.ID); !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("Expected deleted attribute to be gone, got %v", err)
				}
			})

			t.Run("GetOrCreate reuses existing", func(t *testing.T) {
				first, err := store.GetOrCreateAttribute(ctx, user.ID, kind, "Lunch")
				if err != nil {
					t.Fatalf("GetOrCreateAttribute failed: %v", err)
				}
				second, err := store.GetOrCreateAttribute(ctx, user.ID, kind, "Lunch")
				if err != nil {
					t.Fatalf("GetOrCreateAttribute failed: %v", err)
				}
				if first.ID != second.ID {
					t.Errorf("Expected same ID, got %d and %d", first.ID, second.ID)
				}

				theirs, err := store.GetOrCreateAttribute(ctx, other.ID, kind, "Lunch")
				if err != nil {
					t.Fatalf("GetOrCreateAttribute failed: %v", err)
				}
				if theirs.ID == first.ID {
					t.Error("Expected another user's attribute to be separate")
				}
			})
		})
	}
}

func TestAssignedOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "test@example.com")

	banana := createAttr(t, store, models.KindIngredient, user.ID, "Banana")
	createAttr(t, store, models.KindIngredient, user.ID, "Podheena")

	shake := createRecipe(t, store, user.ID, "Banana shake")
	icecream := createRecipe(t, store, user.ID, "Banana icecream")
	for _, r := range []*models.Recipe{shake, icecream} {
		if err := store.LinkAttribute(ctx, user.ID, models.KindIngredient, r.ID, banana.ID); err != nil {
			t.Fatalf("LinkAttribute failed: %v", err)
		}
	}

	attrs, err := store.ListAttributes(ctx, user.ID, models.KindIngredient, storage.ListFilter{AssignedOnly: true})
	if err != nil {
		t.Fatalf("ListAttributes failed: %v", err)
	}
	if len(attrs) != 1 || attrs[0].ID != banana.ID {
		t.Errorf("Expected only Banana once, got %v", names(attrs))
	}

	all, err := store.ListAttributes(ctx, user.ID, models.KindIngredient, storage.ListFilter{})
	if err != nil {
		t.Fatalf("ListAttributes failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 ingredients without filter, got %v", names(all))
	}
}

func TestRecipes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "test@example.com")
	other := createUser(t, store, "user2@example.com")

	t.Run("CreateRecipe links relations", func(t *testing.T) {
		tag := createAttr(t, store, models.KindTag, user.ID, "Dinner")
		ing := createAttr(t, store, models.KindIngredient, user.ID, "Paneer")

		recipe := &models.Recipe{
			UserID:      user.ID,
			Title:       "Malaai kofta",
			TimeMinutes: 60,
			Price:       decimal.RequireFromString("5.5"),
			Description: "Rich curry",
			Tags:        []models.Tag{models.Tag(*tag)},
			Ingredients: []models.Ingredient{models.Ingredient(*ing)},
		}
		if err := store.CreateRecipe(ctx, recipe); err != nil {
			t.Fatalf("CreateRecipe failed: %v", err)
		}

		got, err := store.GetRecipe(ctx, user.ID, recipe.ID)
		if err != nil {
			t.Fatalf("GetRecipe failed: %v", err)
		}
		if got.Title != "Malaai kofta" || got.Price.StringFixed(2) != "5.50" {
			t.Errorf("Unexpected recipe: %+v", got)
		}
		if len(got.Tags) != 1 || got.Tags[0].Name != "Dinner" {
			t.Errorf("Unexpected tags: %v", got.Tags)
		}
		if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "Paneer" {
			t.Errorf("Unexpected ingredients: %v", got.Ingredients)
		}
	})

	t.Run("CreateRecipe rejects foreign attributes", func(t *testing.T) {
		foreign := createAttr(t, store, models.KindTag, other.ID, "Theirs")
		recipe := &models.Recipe{
			UserID: user.ID,
			Title:  "Sneaky",
			Price:  decimal.Zero,
			Tags:   []models.Tag{models.Tag(*foreign)},
		}
		if err := store.CreateRecipe(ctx, recipe); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		recipes, err := store.ListRecipes(ctx, user.ID, storage.RecipeFilter{})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		for _, r := range recipes {
			if r.Title == "Sneaky" {
				t.Error("Expected rolled back recipe to be absent")
			}
		}
	})

	t.Run("CreateRecipe resolves attributes by name", func(t *testing.T) {
		owner := createUser(t, store, "byname@example.com")
		existing := createAttr(t, store, models.KindTag, owner.ID, "Dessert")

		recipe := &models.Recipe{
			UserID:      owner.ID,
			Title:       "Kheer",
			Price:       decimal.RequireFromString("2"),
			Tags:        []models.Tag{{Name: "Dessert"}, {Name: "Sweet"}},
			Ingredients: []models.Ingredient{{Name: "Rice"}},
		}
		if err := store.CreateRecipe(ctx, recipe); err != nil {
			t.Fatalf("CreateRecipe failed: %v", err)
		}

		if len(recipe.Tags) != 2 {
			t.Fatalf("Expected 2 tags, got %v", recipe.Tags)
		}
		var reused bool
		for _, tag := range recipe.Tags {
			if tag.ID == existing.ID {
				reused = true
			}
			if tag.UserID != owner.ID {
				t.Errorf("Expected tag %q owned by %d, got %d", tag.Name, owner.ID, tag.UserID)
			}
		}
		if !reused {
			t.Errorf("Expected existing Dessert tag %d to be reused, got %v", existing.ID, recipe.Tags)
		}
		if len(recipe.Ingredients) != 1 || recipe.Ingredients[0].ID == 0 {
			t.Errorf("Expected created Rice ingredient, got %v", recipe.Ingredients)
		}
	})

	t.Run("failed CreateRecipe leaves no new attributes", func(t *testing.T) {
		owner := createUser(t, store, "atomic@example.com")
		foreign := createAttr(t, store, models.KindTag, other.ID, "Not yours")

		recipe := &models.Recipe{
			UserID:      owner.ID,
			Title:       "Half done",
			Price:       decimal.Zero,
			Tags:        []models.Tag{{Name: "Fresh tag"}, models.Tag(*foreign)},
			Ingredients: []models.Ingredient{{Name: "Fresh ingredient"}},
		}
		if err := store.CreateRecipe(ctx, recipe); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}

		for _, kind := range []models.AttributeKind{models.KindTag, models.KindIngredient} {
			attrs, err := store.ListAttributes(ctx, owner.ID, kind, storage.ListFilter{})
			if err != nil {
				t.Fatalf("ListAttributes failed: %v", err)
			}
			if len(attrs) != 0 {
				t.Errorf("Expected no %s after rollback, got %v", kind, names(attrs))
			}
		}
	})

	t.Run("failed UpdateRecipe leaves no new attributes", func(t *testing.T) {
		owner := createUser(t, store, "atomic-update@example.com")
		recipe := createRecipe(t, store, owner.ID, "Stable")
		foreign := createAttr(t, store, models.KindIngredient, other.ID, "Not yours either")

		recipe.Tags = []models.Tag{{Name: "Would be orphaned"}}
		recipe.Ingredients = []models.Ingredient{models.Ingredient(*foreign)}
		err := store.UpdateRecipe(ctx, recipe, storage.RecipeUpdate{ReplaceTags: true, ReplaceIngredients: true})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}

		tags, err := store.ListAttributes(ctx, owner.ID, models.KindTag, storage.ListFilter{})
		if err != nil {
			t.Fatalf("ListAttributes failed: %v", err)
		}
		if len(tags) != 0 {
			t.Errorf("Expected no tags after rollback, got %v", names(tags))
		}
	})

	t.Run("LinkAttribute checks ownership", func(t *testing.T) {
		mine := createRecipe(t, store, user.ID, "Mine")
		theirTag := createAttr(t, store, models.KindTag, other.ID, "Other tag")

		if err := store.LinkAttribute(ctx, user.ID, models.KindTag, mine.ID, theirTag.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if err := store.LinkAttribute(ctx, other.ID, models.KindTag, mine.ID, theirTag.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRecipes filters by tag and ingredient", func(t *testing.T) {
		owner := createUser(t, store, "filter@example.com")
		vegan := createAttr(t, store, models.KindTag, owner.ID, "Vegan")
		feta := createAttr(t, store, models.KindIngredient, owner.ID, "Feta")

		r1 := createRecipe(t, store, owner.ID, "Thai curry")
		r2 := createRecipe(t, store, owner.ID, "Greek salad")
		createRecipe(t, store, owner.ID, "Fish and chips")

		if err := store.LinkAttribute(ctx, owner.ID, models.KindTag, r1.ID, vegan.ID); err != nil {
			t.Fatalf("LinkAttribute failed: %v", err)
		}
		if err := store.LinkAttribute(ctx, owner.ID, models.KindIngredient, r2.ID, feta.ID); err != nil {
			t.Fatalf("LinkAttribute failed: %v", err)
		}

		all, err := store.ListRecipes(ctx, owner.ID, storage.RecipeFilter{})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if len(all) != 3 || all[0].Title != "Fish and chips" {
			t.Errorf("Expected 3 recipes newest first, got %d", len(all))
		}

		byTag, err := store.ListRecipes(ctx, owner.ID, storage.RecipeFilter{TagIDs: []int64{vegan.ID}})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if len(byTag) != 1 || byTag[0].ID != r1.ID {
			t.Errorf("Expected only %q, got %v", r1.Title, byTag)
		}

		byIng, err := store.ListRecipes(ctx, owner.ID, storage.RecipeFilter{IngredientIDs: []int64{feta.ID}})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if len(byIng) != 1 || byIng[0].ID != r2.ID {
			t.Errorf("Expected only %q, got %v", r2.Title, byIng)
		}
	})

	t.Run("UpdateRecipe replaces selected relations", func(t *testing.T) {
		breakfast := createAttr(t, store, models.KindTag, user.ID, "Breakfast")
		lunch := createAttr(t, store, models.KindTag, user.ID, "Lunch")
		egg := createAttr(t, store, models.KindIngredient, user.ID, "Egg")

		recipe := &models.Recipe{
			UserID:      user.ID,
			Title:       "Omelette",
			Price:       decimal.RequireFromString("2.00"),
			Tags:        []models.Tag{models.Tag(*breakfast)},
			Ingredients: []models.Ingredient{models.Ingredient(*egg)},
		}
		if err := store.CreateRecipe(ctx, recipe); err != nil {
			t.Fatalf("CreateRecipe failed: %v", err)
		}

		recipe.Title = "Cheese omelette"
		recipe.Tags = []models.Tag{models.Tag(*lunch)}
		recipe.Ingredients = nil
		if err := store.UpdateRecipe(ctx, recipe, storage.RecipeUpdate{ReplaceTags: true}); err != nil {
			t.Fatalf("UpdateRecipe failed: %v", err)
		}

		got, err := store.GetRecipe(ctx, user.ID, recipe.ID)
		if err != nil {
			t.Fatalf("GetRecipe failed: %v", err)
		}
		if got.Title != "Cheese omelette" {
			t.Errorf("Title not updated: %s", got.Title)
		}
		if len(got.Tags) != 1 || got.Tags[0].ID != lunch.ID {
			t.Errorf("Expected tags replaced by Lunch, got %v", got.Tags)
		}
		if len(got.Ingredients) != 1 || got.Ingredients[0].ID != egg.ID {
			t.Errorf("Expected ingredients untouched, got %v", got.Ingredients)
		}
	})

	t.Run("foreign recipe looks missing", func(t *testing.T) {
		theirs := createRecipe(t, store, other.ID, "Private")

		if _, err := store.GetRecipe(ctx, user.ID, theirs.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get: expected ErrNotFound, got %v", err)
		}
		theirs.UserID = user.ID
		if err := store.UpdateRecipe(ctx, theirs, storage.RecipeUpdate{}); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update: expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteRecipe(ctx, user.ID, theirs.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Delete: expected ErrNotFound, got %v", err)
		}
		if err := store.SetRecipeImage(ctx, user.ID, theirs.ID, "x.jpg"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("SetImage: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteRecipe keeps attributes", func(t *testing.T) {
		tag := createAttr(t, store, models.KindTag, user.ID, "Keep me")
		recipe := createRecipe(t, store, user.ID, "Short lived")
		if err := store.LinkAttribute(ctx, user.ID, models.KindTag, recipe.ID, tag.ID); err != nil {
			t.Fatalf("LinkAttribute failed: %v", err)
		}

		if err := store.DeleteRecipe(ctx, user.ID, recipe.ID); err != nil {
			t.Fatalf("DeleteRecipe failed: %v", err)
		}
		if _, err := store.GetRecipe(ctx, user.ID, recipe.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected recipe gone, got %v", err)
		}
		if _, err := store.GetAttribute(ctx, user.ID, models.KindTag, tag.ID); err != nil {
			t.Errorf("Expected tag to survive, got %v", err)
		}
	})

	t.Run("SetRecipeImage", func(t *testing.T) {
		recipe := createRecipe(t, store, user.ID, "Photogenic")
		if err := store.SetRecipeImage(ctx, user.ID, recipe.ID, "uploads/recipe/abc.jpg"); err != nil {
			t.Fatalf("SetRecipeImage failed: %v", err)
		}
		got, err := store.GetRecipe(ctx, user.ID, recipe.ID)
		if err != nil {
			t.Fatalf("GetRecipe failed: %v", err)
		}
		if got.Image != "uploads/recipe/abc.jpg" {
			t.Errorf("Unexpected image: %q", got.Image)
		}
	})
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
