package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/common"
)

// Handler exposes order submission.
type Handler struct {
	Svc *Service
}

// Checkout handles POST /api/v1/checkout/{sessionId}.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "checkout service not configured")
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteAppError(w, err)
		return
	}
	placed, err := h.Svc.Submit(r.Context(), chi.URLParam(r, "sessionId"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": placed})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCartEmpty), errors.Is(err, ErrAddressRequired), errors.Is(err, ErrItemUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "CHECKOUT_REJECTED", err.Error(), nil)
	case common.WriteAppError(w, err):
	default:
		cart.WriteError(w, err)
	}
}
