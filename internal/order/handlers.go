package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/common"
)

// Handler exposes customer-facing order endpoints.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
	MaxPerPage     int
}

// List handles GET /api/v1/orders?customerId=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "order service not configured")
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customerId"))
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "customerId is required", map[string]string{"customerId": "is required"})
		return
	}
	page, perPage := common.ParsePagination(r, h.defaultPerPage(), h.MaxPerPage)
	orders, total, err := h.Svc.ListByCustomer(r.Context(), customerID, page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	common.WritePage(w, orders, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "order service not configured")
		return
	}
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

func (h *Handler) defaultPerPage() int {
	if h.DefaultPerPage > 0 {
		return h.DefaultPerPage
	}
	return 20
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrInvalidStatus):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	default:
		if !common.WriteAppError(w, err) {
			common.WriteInternal(w, "order request failed")
		}
	}
}
