package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// RecipeImageDir is the storage prefix for recipe images.
const RecipeImageDir = "uploads/recipe"

// NewImageID generates the identifier used in image file names.
// Tests replace it to get deterministic paths.
var NewImageID = uuid.NewString

// RecipeImageFilePath returns the storage path for a new recipe image,
// keeping the extension of the uploaded filename.
func RecipeImageFilePath(filename string) string {
	name := NewImageID()
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		name += "." + ext
	}
	return path.Join(RecipeImageDir, name)
}
