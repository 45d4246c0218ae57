package api

import (
	"net/http"
	"strings"

	"github.com/mmynk/recipes/internal/middleware"
	"github.com/mmynk/recipes/internal/service"
	"github.com/mmynk/recipes/internal/storage"
)

// attributeHandler serves one attribute kind: tags or ingredients.
type attributeHandler struct {
	svc *service.AttributeService
}

type attributeRequest struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
}

// validate trims the name and reports field errors. full requires the name.
func (req *attributeRequest) validate(full bool) fieldErrors {
	errs := fieldErrors{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	} else if full {
		errs.add("name", msgRequired)
	}
	validateRequest(req, errs)
	return errs
}

func (h *attributeHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := storage.ListFilter{AssignedOnly: boolParam(r, "assigned_only")}
	attrs, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttributeList(attrs))
}

func (h *attributeHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	attr, err := h.svc.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttributeResponse(*attr))
}

func (h *attributeHandler) create(w http.ResponseWriter, r *http.Request) {
	var req attributeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.validate(true); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	attr, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), *req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAttributeResponse(*attr))
}

func (h *attributeHandler) update(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		ownerID := middleware.GetUserID(r.Context())
		if _, err := h.svc.Get(r.Context(), ownerID, id); err != nil {
			writeServiceError(w, err)
			return
		}

		var req attributeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if errs := req.validate(!partial); len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, errs)
			return
		}

		attr, err := h.svc.Update(r.Context(), ownerID, id, service.AttributeUpdate{Name: req.Name})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAttributeResponse(*attr))
	}
}

func (h *attributeHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
