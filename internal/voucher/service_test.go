package voucher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

func newRedisStore(t *testing.T) voucher.RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return voucher.RedisStore{Client: client}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)
	rule := voucher.Rule{Code: "BIENVENUE20", Rate: decimal.RequireFromString("0.2"), MinSpend: 2000}

	require.NoError(t, store.Put(ctx, rule))
	got, err := store.Get(ctx, "BIENVENUE20")
	require.NoError(t, err)
	require.True(t, got.Rate.Equal(rule.Rate))
	require.Equal(t, int64(2000), got.MinSpend)

	_, err = store.Get(ctx, "bienvenue20")
	require.ErrorIs(t, err, voucher.ErrNotFound)

	require.NoError(t, store.Put(ctx, voucher.Rule{Code: "AUTOMNE5", Rate: decimal.RequireFromString("0.05")}))
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "AUTOMNE5", list[0].Code)

	require.NoError(t, store.Delete(ctx, "AUTOMNE5"))
	require.ErrorIs(t, store.Delete(ctx, "AUTOMNE5"), voucher.ErrNotFound)
}

func TestServiceEvaluate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	end := now.Add(-time.Minute)
	svc := &voucher.Service{
		Store: voucher.NewMemoryStore(
			voucher.Rule{Code: "BIENVENUE20", Rate: decimal.RequireFromString("0.2")},
			voucher.Rule{Code: "PAQUES", Rate: decimal.RequireFromString("0.1"), ValidTo: &end},
		),
		Now: func() time.Time { return now },
	}

	res, err := svc.Preview(ctx, "BIENVENUE20", 4800)
	require.NoError(t, err)
	require.Equal(t, int64(960), res.Discount)
	require.Equal(t, "0.2", res.Rate)

	_, err = svc.Evaluate(ctx, "PAQUES", 4800)
	require.ErrorIs(t, err, voucher.ErrVoucherExpired)

	_, err = svc.Lookup(ctx, "  ")
	require.ErrorIs(t, err, voucher.ErrNotFound)

	err = svc.Put(ctx, voucher.Rule{Code: "NEG", Rate: decimal.RequireFromString("-0.1")})
	require.ErrorIs(t, err, voucher.ErrInvalidRule)
}

func TestServiceSeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)
	svc := &voucher.Service{Store: store}

	rules, err := voucher.ParseRules("BIENVENUE20:0.2,FIDELITE10:0.1")
	require.NoError(t, err)
	added, err := svc.Seed(ctx, rules)
	require.NoError(t, err)
	require.Equal(t, 2, added)

	added, err = svc.Seed(ctx, rules)
	require.NoError(t, err)
	require.Zero(t, added)
}

func TestHandlerCreateAndPreview(t *testing.T) {
	h := &voucher.Handler{Svc: &voucher.Service{Store: voucher.NewMemoryStore()}}
	r := chi.NewRouter()
	r.Post("/promotions", h.Create)
	r.Post("/promotions/preview", h.Preview)
	r.Delete("/promotions/{code}", h.Delete)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/promotions", `{"code":"BIENVENUE20","rate":0.2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.MethodPost, "/promotions", `{"code":"TROP","rate":1.2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_PROMOTION")

	rec = do(http.MethodPost, "/promotions/preview", `{"code":"BIENVENUE20","subtotal":4800}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"discount":960`)

	rec = do(http.MethodPost, "/promotions/preview", `{"code":"INCONNU","subtotal":4800}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodDelete, "/promotions/BIENVENUE20", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
