package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/checkout"
	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/events"
	"github.com/noah-isme/boulangerie-api/internal/loyalty"
	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

type fakeScheduler struct {
	mu     sync.Mutex
	orders []string
	delays []time.Duration
	err    error
}

func (f *fakeScheduler) ScheduleOrderConfirmation(_ context.Context, orderID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, orderID)
	f.delays = append(f.delays, delay)
	return f.err
}

type fixture struct {
	carts   *cart.Service
	orders  *order.Service
	ledger  *loyalty.MemoryLedger
	events  *events.MemoryStore
	confirm *checkout.Confirmer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := catalog.NewService(catalog.ServiceConfig{
		Products:   catalog.DefaultProducts,
		Categories: catalog.DefaultCategories,
	})
	require.NoError(t, err)
	store := &events.MemoryStore{}
	bus := &events.Bus{Store: store}
	carts := &cart.Service{
		Store:      cart.NewMemoryStore(),
		Catalog:    cat,
		Promotions: &voucher.Service{Store: voucher.NewMemoryStore()},
	}
	orders := &order.Service{Repo: order.NewMemoryRepository(), Events: bus}
	ledger := loyalty.NewMemoryLedger()
	return fixture{
		carts:   carts,
		orders:  orders,
		ledger:  ledger,
		events:  store,
		confirm: &checkout.Confirmer{Orders: orders, Ledger: ledger, Events: bus},
	}
}

func validInput() checkout.Input {
	return checkout.Input{
		CustomerID:    "c1",
		CustomerName:  "Awa Diop",
		Phone:         "+221770000000",
		Address:       "12 rue des Lilas, Dakar",
		PaymentMethod: "mobile_money",
	}
}

func topics(store *events.MemoryStore) []string {
	var out []string
	for _, e := range store.Events() {
		out = append(out, e.Topic)
	}
	return out
}

func TestSubmitSchedulesConfirmationAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sched := &fakeScheduler{}
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders, Scheduler: sched, Delay: 2 * time.Second}

	_, err := f.carts.AddItem(ctx, "s1", "croissant", 2)
	require.NoError(t, err)

	placed, err := svc.Submit(ctx, "s1", validInput())
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, placed.Status)
	require.Equal(t, pricing.Money(4500), placed.Breakdown.Total)
	require.Equal(t, "12 rue des Lilas, Dakar", placed.Address)
	require.Len(t, placed.Items, 1)
	require.Equal(t, []string{placed.ID}, sched.orders)
	require.Equal(t, []time.Duration{2 * time.Second}, sched.delays)

	view, err := f.carts.View(ctx, "s1")
	require.NoError(t, err)
	require.True(t, view.Empty())
	require.Equal(t, []string{events.TopicOrderCreated}, topics(f.events))
}

func TestSubmitConfirmsInlineWithoutScheduler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders, Confirmer: f.confirm}

	_, err := f.carts.AddItem(ctx, "s1", "tarte-citron", 1)
	require.NoError(t, err)
	_, err = f.carts.SetDeliveryMode(ctx, "s1", pricing.ModePickup)
	require.NoError(t, err)

	in := validInput()
	in.Address = ""
	placed, err := svc.Submit(ctx, "s1", in)
	require.NoError(t, err)
	require.Equal(t, order.StatusConfirmed, placed.Status)
	require.Equal(t, pricing.ModePickup, placed.Mode)

	balance, err := f.ledger.Balance(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, int64(40), balance)
	require.Equal(t, []string{
		events.TopicOrderCreated,
		events.TopicOrderStatusChanged,
		events.TopicOrderConfirmed,
		events.TopicLoyaltyAccrued,
	}, topics(f.events))
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders}

	_, err := svc.Submit(ctx, "empty", validInput())
	require.ErrorIs(t, err, checkout.ErrCartEmpty)

	_, err = f.carts.AddItem(ctx, "s1", "baguette-tradition", 3)
	require.NoError(t, err)
	in := validInput()
	in.Address = "  "
	_, err = svc.Submit(ctx, "s1", in)
	require.ErrorIs(t, err, checkout.ErrAddressRequired)

	in = validInput()
	in.PaymentMethod = "cheque"
	_, err = svc.Submit(ctx, "s1", in)
	require.True(t, common.IsAppError(err))

	view, err := f.carts.View(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 3, view.ItemCount)

	orders, total, err := f.orders.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, orders)
}

func TestSubmitKeepsOrderWhenSchedulingFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders, Scheduler: &fakeScheduler{err: errors.New("queue down")}}

	_, err := f.carts.AddItem(ctx, "s1", "croissant", 1)
	require.NoError(t, err)
	placed, err := svc.Submit(ctx, "s1", validInput())
	require.NoError(t, err)

	stored, err := f.orders.Get(ctx, placed.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, stored.Status)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders, Scheduler: &fakeScheduler{}}

	_, err := f.carts.AddItem(ctx, "s1", "mille-feuille", 2)
	require.NoError(t, err)
	placed, err := svc.Submit(ctx, "s1", validInput())
	require.NoError(t, err)

	require.NoError(t, f.confirm.Confirm(ctx, placed.ID))
	require.NoError(t, f.confirm.Confirm(ctx, placed.ID))

	balance, err := f.ledger.Balance(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, placed.Breakdown.LoyaltyPoints, balance)

	require.ErrorIs(t, f.confirm.Confirm(ctx, "missing"), order.ErrNotFound)
}

func TestConfirmRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := &checkout.Service{Carts: f.carts, Orders: f.orders, Scheduler: &fakeScheduler{}}

	_, err := f.carts.AddItem(ctx, "s1", "croissant", 1)
	require.NoError(t, err)
	placed, err := svc.Submit(ctx, "s1", validInput())
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, placed.ID, order.StatusCancelled)
	require.NoError(t, err)

	require.ErrorIs(t, f.confirm.Confirm(ctx, placed.ID), order.ErrInvalidTransition)
}

func TestCheckoutHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := &checkout.Handler{Svc: &checkout.Service{Carts: f.carts, Orders: f.orders, Scheduler: &fakeScheduler{}}}
	r := chi.NewRouter()
	r.Post("/api/v1/checkout/{sessionId}", h.Checkout)

	post := func(session, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/"+session, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	payload, err := json.Marshal(validInput())
	require.NoError(t, err)

	rec := post("s1", string(payload))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "CHECKOUT_REJECTED")

	rec = post("s1", `{"customerName":"Awa"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "phone")

	_, err = f.carts.AddItem(ctx, "s1", "eclair-cafe", 1)
	require.NoError(t, err)
	rec = post("s1", string(payload))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "c1", body.Data.CustomerID)
	require.Equal(t, pricing.Money(5000), body.Data.Breakdown.Total)
}
