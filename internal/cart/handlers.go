package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

// Handler wires cart services to HTTP. Routes are mounted under
// /api/v1/carts/{sessionId}.
type Handler struct {
	Svc *Service
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateItemRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

type promotionRequest struct {
	Code string `json:"code" validate:"required"`
}

type deliveryModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

func sessionID(r *http.Request) string {
	if id, ok := common.SessionID(r.Context()); ok {
		return id
	}
	return strings.TrimSpace(chi.URLParam(r, "sessionId"))
}

func (h *Handler) respond(w http.ResponseWriter, view View, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Get returns the priced cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	view, err := h.Svc.View(r.Context(), sessionID(r))
	h.respond(w, view, err)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	view, err := h.Svc.Clear(r.Context(), sessionID(r))
	h.respond(w, view, err)
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	var payload addItemRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}
	view, err := h.Svc.AddItem(r.Context(), sessionID(r), strings.TrimSpace(payload.ProductID), qty)
	h.respond(w, view, err)
}

// UpdateItem adjusts a line quantity by a signed delta.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	var payload updateItemRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	view, err := h.Svc.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productId"), *payload.Delta)
	h.respond(w, view, err)
}

// RemoveItem deletes a line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	view, err := h.Svc.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "productId"))
	h.respond(w, view, err)
}

// ApplyPromotion validates and attaches a promotion code.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	var payload promotionRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	view, err := h.Svc.ApplyPromotion(r.Context(), sessionID(r), strings.TrimSpace(payload.Code))
	h.respond(w, view, err)
}

// RemovePromotion clears the applied promotion.
func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	view, err := h.Svc.RemovePromotion(r.Context(), sessionID(r))
	h.respond(w, view, err)
}

// SetDeliveryMode selects delivery or pickup.
func (h *Handler) SetDeliveryMode(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "cart service not configured")
		return
	}
	var payload deliveryModeRequest
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteAppError(w, err)
		return
	}
	view, err := h.Svc.SetDeliveryMode(r.Context(), sessionID(r), pricing.DeliveryMode(payload.Mode))
	h.respond(w, view, err)
}

// WriteError maps cart, catalogue and promotion errors to the JSON error shape.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		common.WriteInternal(w, "unknown error")
		return
	}
	if common.WriteAppError(w, err) {
		return
	}
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY",
			fmt.Sprintf("quantity must be between 1 and %d", pricing.MaxQuantity), nil)
	case errors.Is(err, pricing.ErrInvalidPromotion):
		common.JSONError(w, http.StatusBadRequest, "INVALID_PROMOTION", err.Error(), nil)
	case errors.Is(err, pricing.ErrInvalidDeliveryMode):
		common.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_MODE", err.Error(), nil)
	case errors.Is(err, pricing.ErrInvalidPrice):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, pricing.ErrUnknownProduct), errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_PRODUCT", err.Error(), nil)
	case errors.Is(err, catalog.ErrUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, voucher.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PROMOTION_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, voucher.ErrVoucherInactive), errors.Is(err, voucher.ErrVoucherExpired), errors.Is(err, voucher.ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMOTION_REJECTED", err.Error(), nil)
	default:
		common.WriteInternal(w, "cart request failed")
	}
}
