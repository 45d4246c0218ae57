package api

import (
	"net/http"

	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/middleware"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password"`
	Name     *string `json:"name" validate:"omitnil,max=255"`
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	validateRequest(&req, errs)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	user, err := h.deps.Auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *handler) createToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	validateRequest(&req, errs)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	token, err := h.deps.Auth.Token(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserResponse(middleware.User(r.Context())))
}

// updateMe handles PUT (full) and PATCH (partial) on the current user.
func (h *handler) updateMe(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		if !partial {
			if req.Email == nil {
				errs.add("email", msgRequired)
			}
			if req.Name == nil {
				errs.add("name", msgRequired)
			}
		}
		validateRequest(&req, errs)
		if len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, errs)
			return
		}

		user, err := h.deps.Auth.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), auth.ProfileUpdate{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newUserResponse(user))
	}
}
