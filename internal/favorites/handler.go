package favorites

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/common"
)

type Handler struct {
	Svc *Service
}

type addRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func sessionID(r *http.Request) string {
	if id, ok := common.SessionID(r.Context()); ok {
		return id
	}
	return strings.TrimSpace(chi.URLParam(r, "sessionId"))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := h.Svc.List(r.Context(), sessionID(r))
	if err != nil {
		common.WriteInternal(w, "failed to list favorites")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": favs})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteAppError(w, err)
		return
	}
	if err := h.Svc.Add(r.Context(), sessionID(r), req.ProductID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "UNKNOWN_PRODUCT", "product not found", nil)
			return
		}
		common.WriteInternal(w, "failed to add favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Remove(r.Context(), sessionID(r), chi.URLParam(r, "productId")); err != nil {
		common.WriteInternal(w, "failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
