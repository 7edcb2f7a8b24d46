package loyalty_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/loyalty"
)

func ledgers(t *testing.T) map[string]loyalty.Ledger {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]loyalty.Ledger{
		"memory": loyalty.NewMemoryLedger(),
		"redis":  loyalty.RedisLedger{Client: client},
	}
}

func TestAccrueIsIdempotentPerOrder(t *testing.T) {
	for name, ledger := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := ledger.Accrue(ctx, "cust-1", "order-1", 63)
			require.NoError(t, err)
			require.True(t, first.Applied)
			require.Equal(t, int64(63), first.Balance)

			replay, err := ledger.Accrue(ctx, "cust-1", "order-1", 63)
			require.NoError(t, err)
			require.False(t, replay.Applied)
			require.Equal(t, int64(63), replay.Balance)

			second, err := ledger.Accrue(ctx, "cust-1", "order-2", 35)
			require.NoError(t, err)
			require.Equal(t, int64(98), second.Balance)

			balance, err := ledger.Balance(ctx, "cust-1")
			require.NoError(t, err)
			require.Equal(t, int64(98), balance)

			balance, err = ledger.Balance(ctx, "nobody")
			require.NoError(t, err)
			require.Zero(t, balance)

			_, err = ledger.Accrue(ctx, "", "order-3", 1)
			require.ErrorIs(t, err, loyalty.ErrInvalidAccrual)
			_, err = ledger.Accrue(ctx, "cust-1", "order-3", -1)
			require.ErrorIs(t, err, loyalty.ErrInvalidAccrual)
		})
	}
}

func TestBalanceHandler(t *testing.T) {
	ledger := loyalty.NewMemoryLedger()
	_, err := ledger.Accrue(context.Background(), "cust-1", "order-1", 45)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/api/v1/loyalty/{customerId}", (&loyalty.Handler{Ledger: ledger}).Balance)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/cust-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"customerId":"cust-1","points":45}}`, rec.Body.String())
}
