package models

// AttributeKind selects one of the per-user label collections attached to recipes.
type AttributeKind string

const (
	KindTag        AttributeKind = "tags"
	KindIngredient AttributeKind = "ingredients"
)

// Valid reports whether k names a known attribute collection.
func (k AttributeKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// Attribute is the shared shape of tags and ingredients: a name owned by a user.
type Attribute struct {
	ID     int64
	UserID int64
	Name   string
}

func (a Attribute) String() string {
	return a.Name
}

// Tag labels a recipe (e.g. "Vegan", "Breakfast").
type Tag Attribute

func (t Tag) String() string {
	return t.Name
}

// Ingredient is something a recipe uses (e.g. "Salt").
type Ingredient Attribute

func (i Ingredient) String() string {
	return i.Name
}

// TagsFrom converts generic attributes to tags.
func TagsFrom(attrs []Attribute) []Tag {
	tags := make([]Tag, len(attrs))
	for i, a := range attrs {
		tags[i] = Tag(a)
	}
	return tags
}

// IngredientsFrom converts generic attributes to ingredients.
func IngredientsFrom(attrs []Attribute) []Ingredient {
	ingredients := make([]Ingredient, len(attrs))
	for i, a := range attrs {
		ingredients[i] = Ingredient(a)
	}
	return ingredients
}
