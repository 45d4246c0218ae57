package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/recipes/internal/middleware"
	"github.com/mmynk/recipes/internal/models"
	"github.com/mmynk/recipes/internal/service"
	"github.com/mmynk/recipes/internal/storage"
)

// maxImageBytes caps image uploads.
const maxImageBytes = 10 << 20

var (
	maxPrice      = decimal.NewFromInt(1000)
	priceDecimals = int32(2)
)

type nameRequest struct {
	Name string `json:"name" validate:"min=1,max=255"`
}

// recipeRequest is shared by create, replace and partial update. Absent
// fields decode as nil.
type recipeRequest struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Link        *string          `json:"link" validate:"omitempty,url,max=255"`
	Tags        *[]nameRequest   `json:"tags" validate:"omitnil,dive"`
	Ingredients *[]nameRequest   `json:"ingredients" validate:"omitnil,dive"`
}

// validate trims text fields and checks the request. Full requests must carry
// title, time_minutes and price.
func (req *recipeRequest) validate(full bool) fieldErrors {
	req.trim()
	errs := fieldErrors{}
	if full {
		if req.Title == nil {
			errs.add("title", msgRequired)
		}
		if req.TimeMinutes == nil {
			errs.add("time_minutes", msgRequired)
		}
		if req.Price == nil {
			errs.add("price", msgRequired)
		}
	}
	if req.Price != nil {
		if !req.Price.Equal(req.Price.Round(priceDecimals)) {
			errs.add("price", "Ensure that there are no more than 2 decimal places.")
		}
		if req.Price.Abs().GreaterThanOrEqual(maxPrice) {
			errs.add("price", "Ensure that there are no more than 5 digits in total.")
		}
	}
	validateRequest(req, errs)
	return errs
}

func (req *recipeRequest) trim() {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	for _, list := range []*[]nameRequest{req.Tags, req.Ingredients} {
		if list == nil {
			continue
		}
		for i := range *list {
			(*list)[i].Name = strings.TrimSpace((*list)[i].Name)
		}
	}
}

func names(in *[]nameRequest) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(*in))
	for i, n := range *in {
		out[i] = n.Name
	}
	return out
}

func namesPtr(in *[]nameRequest) *[]string {
	if in == nil {
		return nil
	}
	out := names(in)
	return &out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (req *recipeRequest) input() service.RecipeInput {
	return service.RecipeInput{
		Title:       deref(req.Title),
		TimeMinutes: deref(req.TimeMinutes),
		Price:       deref(req.Price),
		Description: deref(req.Description),
		Link:        deref(req.Link),
		Tags:        names(req.Tags),
		Ingredients: names(req.Ingredients),
	}
}

func (req *recipeRequest) patch() service.RecipePatch {
	return service.RecipePatch{
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Description: req.Description,
		Link:        req.Link,
		Tags:        namesPtr(req.Tags),
		Ingredients: namesPtr(req.Ingredients),
	}
}

func (h *handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	var filter storage.RecipeFilter
	var err error
	if filter.TagIDs, err = idsParam(r, "tags"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.IngredientIDs, err = idsParam(r, "ingredients"); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	recipes, err := h.deps.Recipes.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]recipeResponse, len(recipes))
	for i := range recipes {
		out[i] = newRecipeResponse(&recipes[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.validate(true); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	recipe, err := h.deps.Recipes.Create(r.Context(), middleware.GetUserID(r.Context()), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.newRecipeDetail(recipe))
}

func (h *handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	recipe, err := h.deps.Recipes.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newRecipeDetail(recipe))
}

// updateRecipe handles PUT (replace) and PATCH (partial update).
func (h *handler) updateRecipe(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		ownerID := middleware.GetUserID(r.Context())
		if _, err := h.deps.Recipes.Get(r.Context(), ownerID, id); err != nil {
			writeServiceError(w, err)
			return
		}

		var req recipeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if errs := req.validate(!partial); len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, errs)
			return
		}

		var (
			recipe *models.Recipe
			err    error
		)
		if partial {
			recipe, err = h.deps.Recipes.Update(r.Context(), ownerID, id, req.patch())
		} else {
			recipe, err = h.deps.Recipes.Replace(r.Context(), ownerID, id, req.input())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h.newRecipeDetail(recipe))
	}
}

func (h *handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.deps.Recipes.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadImage accepts a multipart form with the file in the "image" field.
func (h *handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusBadRequest, fieldErrors{"image": {"The submitted file is too large."}})
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeJSON(w, http.StatusBadRequest, fieldErrors{"image": {"No file was submitted."}})
		default:
			writeJSON(w, http.StatusBadRequest, fieldErrors{"image": {"The submitted data was not a file."}})
		}
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, fieldErrors{"image": {"The submitted data was not a file."}})
		return
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, fieldErrors{"image": {"Upload a valid image. The file you uploaded was either not an image or a corrupted image."}})
		return
	}

	// The image store may need to rewind the body, so hand over the file itself.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeServiceError(w, err)
		return
	}

	recipe, err := h.deps.Recipes.UploadImage(r.Context(), middleware.GetUserID(r.Context()), id, filepath.Base(header.Filename), contentType, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{ID: recipe.ID, Image: h.imageURL(recipe.Image)})
}
