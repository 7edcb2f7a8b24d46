package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/common"
)

// AdminHandler provides back-office order management endpoints.
type AdminHandler struct {
	Svc *Service
}

type patchStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List handles GET /api/v1/admin/orders.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "order service not configured")
		return
	}
	page, perPage := common.ParsePagination(r, 50, 200)
	orders, total, err := h.Svc.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.WritePage(w, orders, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// PatchStatus updates the order status with state-machine validation.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "order service not configured")
		return
	}
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteAppError(w, err)
		return
	}
	target, err := ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), target)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
