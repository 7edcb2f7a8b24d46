package favorites_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/favorites"
)

func TestFavoritesOverRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cat, err := catalog.NewService(catalog.ServiceConfig{Products: catalog.DefaultProducts, Categories: catalog.DefaultCategories})
	require.NoError(t, err)
	h := &favorites.Handler{Svc: &favorites.Service{Store: favorites.RedisStore{Client: client}, Catalog: cat}}

	r := chi.NewRouter()
	r.Get("/api/v1/favorites/{sessionId}", h.List)
	r.Post("/api/v1/favorites/{sessionId}", h.Add)
	r.Delete("/api/v1/favorites/{sessionId}/{productId}", h.Remove)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/v1/favorites/s1", `{"productId":"tarte-citron"}`).Code)
	require.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/v1/favorites/s1", `{"productId":"croissant"}`).Code)
	require.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/v1/favorites/s1", `{"productId":"nope"}`).Code)

	members, err := mr.Members("favorites:s1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"tarte-citron", "croissant"}, members)

	rec := do(http.MethodGet, "/api/v1/favorites/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "croissant", body.Data[0].ID)

	require.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/api/v1/favorites/s1/croissant", "").Code)
	list, err := h.Svc.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := favorites.NewMemoryStore()
	require.NoError(t, store.Add(ctx, "s1", "b"))
	require.NoError(t, store.Add(ctx, "s1", "a"))
	require.NoError(t, store.Add(ctx, "s1", "a"))
	require.NoError(t, store.Remove(ctx, "s2", "a"))
	ids, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)
}
