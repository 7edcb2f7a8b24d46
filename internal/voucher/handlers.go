package voucher

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

// Handler exposes back-office promotion management endpoints.
type Handler struct {
	Svc *Service
}

type rulePayload struct {
	Code        string          `json:"code" validate:"required,max=32"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description" validate:"max=200"`
	MinSpend    pricing.Money   `json:"minSpend" validate:"gte=0"`
	ValidFrom   *time.Time      `json:"validFrom"`
	ValidTo     *time.Time      `json:"validTo"`
}

type previewRequest struct {
	Code     string        `json:"code" validate:"required"`
	Subtotal pricing.Money `json:"subtotal" validate:"gte=0"`
}

// List returns every configured promotion.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "promotion service not configured")
		return
	}
	rules, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteInternal(w, "failed to list promotions")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rules})
}

// Create stores a promotion rule, replacing an existing rule with the same code.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "promotion service not configured")
		return
	}
	var payload rulePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	rule := Rule{
		Code:        strings.TrimSpace(payload.Code),
		Rate:        payload.Rate,
		Description: strings.TrimSpace(payload.Description),
		MinSpend:    payload.MinSpend,
		ValidFrom:   payload.ValidFrom,
		ValidTo:     payload.ValidTo,
	}
	if err := h.Svc.Put(r.Context(), rule); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

// Delete removes a promotion by code.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "promotion service not configured")
		return
	}
	code := chi.URLParam(r, "code")
	if err := h.Svc.Delete(r.Context(), code); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview returns the simulated discount for a promotion without touching any cart.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "promotion service not configured")
		return
	}
	var req previewRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteAppError(w, err)
		return
	}
	res, err := h.Svc.Preview(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PROMOTION_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidRule):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PROMOTION", err.Error(), nil)
	case errors.Is(err, ErrVoucherInactive), errors.Is(err, ErrVoucherExpired), errors.Is(err, ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMOTION_REJECTED", err.Error(), nil)
	default:
		common.WriteInternal(w, "promotion request failed")
	}
}
