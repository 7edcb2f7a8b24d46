package loyalty

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/common"
)

// Handler exposes loyalty balances.
type Handler struct {
	Ledger Ledger
}

// Balance handles GET /api/v1/loyalty/{customerId}.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		common.WriteInternal(w, "loyalty ledger not configured")
		return
	}
	customerID := strings.TrimSpace(chi.URLParam(r, "customerId"))
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "customer id is required", nil)
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), customerID)
	if err != nil {
		common.WriteInternal(w, "failed to load loyalty balance")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"customerId": customerID, "points": balance},
	})
}
