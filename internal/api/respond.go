package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/service"
	"github.com/mmynk/recipes/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

// fieldErrors is the 400 body: field name to messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

type detailResponse struct {
	Detail string `json:"detail"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field errors are reported under
// their JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateRequest runs struct validation and merges the result into errs.
func validateRequest(v any, errs fieldErrors) {
	err := getValidator().Struct(v)
	if err == nil {
		return
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		errs.add("non_field_errors", err.Error())
		return
	}
	for _, fe := range validationErrs {
		errs.add(fe.Field(), translateError(fe))
	}
}

func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "min":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return msgBlank
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// decodeJSON reads the request body into v. A malformed body is reported as
// a 400 and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps service and storage errors to responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrBlankName):
		writeJSON(w, http.StatusBadRequest, fieldErrors{"name": {msgBlank}})
	case errors.Is(err, auth.ErrEmailRequired):
		writeJSON(w, http.StatusBadRequest, fieldErrors{"email": {err.Error()}})
	case errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusBadRequest, fieldErrors{"email": {"user with this email already exists."}})
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, fieldErrors{"password": {err.Error()}})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, fieldErrors{"non_field_errors": {"Unable to authenticate with provided credentials."}})
	case errors.Is(err, auth.ErrInvalidToken):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// idParam parses the {id} route parameter. Unparseable IDs cannot name a
// record and answer 404.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// boolParam treats 1 and true as set.
func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// idsParam parses a comma-separated list of IDs such as tags=1,2.
func idsParam(r *http.Request, name string) ([]int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a valid id", name, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
