package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
)

type productsResponse struct {
	Data       []catalog.Product `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"perPage"`
		TotalItems int `json:"totalItems"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Products:     catalog.DefaultProducts,
		Categories:   catalog.DefaultCategories,
		DefaultLimit: 5,
		MaxLimit:     10,
	})
	require.NoError(t, err)
	return svc
}

func TestCatalogHandlers(t *testing.T) {
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t)})
	r := chi.NewRouter()
	r.Get("/api/v1/categories", handler.Categories)
	r.Get("/api/v1/products", handler.Products)
	r.Get("/api/v1/products/{id}", handler.ProductDetail)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("categories", func(t *testing.T) {
		rec := get("/api/v1/categories")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []catalog.Category `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, len(catalog.DefaultCategories))
	})

	t.Run("products list paginates", func(t *testing.T) {
		rec := get("/api/v1/products?limit=2&page=2")
		require.Equal(t, http.StatusOK, rec.Code)
		var body productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		require.Equal(t, 2, body.Pagination.Page)
		require.Equal(t, len(catalog.DefaultProducts), body.Pagination.TotalItems)
		require.Equal(t, rec.Header().Get("X-Total-Count"), "13")
	})

	t.Run("products filter by category and query", func(t *testing.T) {
		rec := get("/api/v1/products?category=viennoiseries&q=CHOCOLAT")
		require.Equal(t, http.StatusOK, rec.Code)
		var body productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		require.Equal(t, "pain-au-chocolat", body.Data[0].ID)
	})

	t.Run("page far past the end", func(t *testing.T) {
		rec := get("/api/v1/products?page=461168601842738792&limit=20")
		require.Equal(t, http.StatusOK, rec.Code)
		var body productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Empty(t, body.Data)
		require.Equal(t, 461168601842738792, body.Pagination.Page)
		require.Equal(t, 10, body.Pagination.PerPage)
		require.Equal(t, 2, body.Pagination.TotalPages)
	})

	t.Run("invalid page", func(t *testing.T) {
		rec := get("/api/v1/products?page=0")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("detail", func(t *testing.T) {
		rec := get("/api/v1/products/croissant")
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data catalog.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, int64(1500), body.Data.Price)
	})

	t.Run("detail not found", func(t *testing.T) {
		rec := get("/api/v1/products/brioche-inconnue")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "UNKNOWN_PRODUCT")
	})
}

func TestNewServiceRejectsInvalidSeed(t *testing.T) {
	_, err := catalog.NewService(catalog.ServiceConfig{
		Categories: catalog.DefaultCategories,
		Products:   []catalog.Product{{ID: "x", Name: "X", Category: "pains", Price: -1}},
	})
	require.Error(t, err)

	_, err = catalog.NewService(catalog.ServiceConfig{
		Categories: catalog.DefaultCategories,
		Products:   []catalog.Product{{ID: "x", Name: "X", Category: "glaces", Price: 100}},
	})
	require.Error(t, err)

	_, err = catalog.NewService(catalog.ServiceConfig{
		Categories: catalog.DefaultCategories,
		Products: []catalog.Product{
			{ID: "x", Name: "X", Category: "pains", Price: 100},
			{ID: "x", Name: "Y", Category: "pains", Price: 200},
		},
	})
	require.Error(t, err)
}

func TestProductLookup(t *testing.T) {
	svc := newService(t)
	_, err := svc.Product(context.Background(), "nope")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	p, err := svc.Product(context.Background(), "baguette-tradition")
	require.NoError(t, err)
	require.Equal(t, "baguette-tradition", p.PricingProduct().ID)
}
