package api

import (
	"strings"

	"github.com/mmynk/recipes/internal/models"
)

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type attributeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type recipeResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Ingredients []attributeResponse `json:"ingredients"`
}

type recipeDetailResponse struct {
	recipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type imageResponse struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

func newAttributeResponse(a models.Attribute) attributeResponse {
	return attributeResponse{ID: a.ID, Name: a.Name}
}

func newAttributeList(attrs []models.Attribute) []attributeResponse {
	out := make([]attributeResponse, len(attrs))
	for i, a := range attrs {
		out[i] = newAttributeResponse(a)
	}
	return out
}

func newRecipeResponse(r *models.Recipe) recipeResponse {
	tags := make([]attributeResponse, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = attributeResponse{ID: t.ID, Name: t.Name}
	}
	ingredients := make([]attributeResponse, len(r.Ingredients))
	for i, in := range r.Ingredients {
		ingredients[i] = attributeResponse{ID: in.ID, Name: in.Name}
	}

	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func (h *handler) newRecipeDetail(r *models.Recipe) recipeDetailResponse {
	return recipeDetailResponse{
		recipeResponse: newRecipeResponse(r),
		Description:    r.Description,
		Image:          h.imageURL(r.Image),
	}
}

// imageURL joins the media URL and a stored image path. No image is null.
func (h *handler) imageURL(path string) *string {
	if path == "" {
		return nil
	}
	url := strings.TrimSuffix(h.mediaURL, "/") + "/" + path
	return &url
}
