package cart_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

type viewResponse struct {
	Data cart.View `json:"data"`
}

type errorResponse struct {
	Error common.ErrorBody `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	f := newFixture(t, nil)
	h := &cart.Handler{Svc: f.svc}
	r := chi.NewRouter()
	r.Route("/api/v1/carts/{sessionId}", func(r chi.Router) {
		r.Use(common.SessionFromPath("sessionId"))
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productId}", h.UpdateItem)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Post("/promotion", h.ApplyPromotion)
		r.Delete("/promotion", h.RemovePromotion)
		r.Put("/delivery-mode", h.SetDeliveryMode)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) cart.View {
	t.Helper()
	var body viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestCartHandlersFlow(t *testing.T) {
	r := newRouter(t)
	base := "/api/v1/carts/abc"

	rec := do(t, r, http.MethodPost, base+"/items", `{"productId":"croissant","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, r, http.MethodPost, base+"/items", `{"productId":"pain-au-chocolat","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	require.Equal(t, int64(6300), view.Breakdown.Total)

	rec = do(t, r, http.MethodPost, base+"/promotion", `{"code":"BIENVENUE20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(5340), decodeView(t, rec).Breakdown.Total)

	rec = do(t, r, http.MethodPut, base+"/delivery-mode", `{"mode":"pickup"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, decodeView(t, rec).Breakdown.DeliveryFee)

	rec = do(t, r, http.MethodPatch, base+"/items/croissant", `{"delta":-1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decodeView(t, rec).Items[0].Quantity)

	rec = do(t, r, http.MethodDelete, base+"/items/croissant", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeView(t, rec).Items, 1)

	rec = do(t, r, http.MethodDelete, base+"/promotion", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1800), decodeView(t, rec).Breakdown.Total)

	rec = do(t, r, http.MethodDelete, base+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeView(t, rec).Empty())
}

func TestCartHandlersErrors(t *testing.T) {
	r := newRouter(t)
	base := "/api/v1/carts/abc"

	cases := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"zero quantity", http.MethodPost, base + "/items", `{"productId":"croissant","quantity":0}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"negative quantity", http.MethodPost, base + "/items", `{"productId":"croissant","quantity":-2}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"quantity above max", http.MethodPost, base + "/items", `{"productId":"croissant","quantity":1000}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"quantity max int64", http.MethodPost, base + "/items", `{"productId":"croissant","quantity":9223372036854775807}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"quantity 1e16", http.MethodPost, base + "/items", `{"productId":"croissant","quantity":10000000000000000}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"missing product id", http.MethodPost, base + "/items", `{"quantity":1}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown product", http.MethodPost, base + "/items", `{"productId":"brioche","quantity":1}`, http.StatusNotFound, "UNKNOWN_PRODUCT"},
		{"unavailable product", http.MethodPost, base + "/items", `{"productId":"pain-mie","quantity":1}`, http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE"},
		{"unknown promotion", http.MethodPost, base + "/promotion", `{"code":"NOPE"}`, http.StatusNotFound, "PROMOTION_NOT_FOUND"},
		{"minimum spend", http.MethodPost, base + "/promotion", `{"code":"GROS50"}`, http.StatusUnprocessableEntity, "PROMOTION_REJECTED"},
		{"bad mode", http.MethodPut, base + "/delivery-mode", `{"mode":"drone"}`, http.StatusBadRequest, "INVALID_DELIVERY_MODE"},
		{"missing delta", http.MethodPatch, base + "/items/croissant", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	r := newRouter(t)
	rec := do(t, r, http.MethodPost, "/api/v1/carts/def/items", `{"productId":"croissant"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	require.Len(t, view.Items, 1)
	require.Equal(t, 1, view.Items[0].Quantity)
}

func TestQuantityStaysBoundedAcrossRequests(t *testing.T) {
	r := newRouter(t)
	base := "/api/v1/carts/big"

	rec := do(t, r, http.MethodPost, base+"/items", fmt.Sprintf(`{"productId":"croissant","quantity":%d}`, pricing.MaxQuantity))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, base+"/items", `{"productId":"croissant","quantity":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_QUANTITY", errorCode(t, rec))

	rec = do(t, r, http.MethodPatch, base+"/items/croissant", `{"delta":9223372036854775807}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_QUANTITY", errorCode(t, rec))

	rec = do(t, r, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	require.Equal(t, pricing.MaxQuantity, view.Items[0].Quantity)
	require.Greater(t, int64(view.Breakdown.Total), int64(0))
}
