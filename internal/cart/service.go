package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
	"github.com/noah-isme/boulangerie-api/internal/voucher"
)

// DefaultMode is the delivery mode of a fresh cart.
const DefaultMode = pricing.ModeDelivery

// Mutation names reported to observers and metrics.
const (
	OpAddItem         = "add_item"
	OpRemoveItem      = "remove_item"
	OpUpdateQuantity  = "update_quantity"
	OpApplyPromotion  = "apply_promotion"
	OpRemovePromotion = "remove_promotion"
	OpSetDeliveryMode = "set_delivery_mode"
	OpClear           = "clear"
	OpCheckout        = "checkout"
)

// Catalog resolves products and their current prices.
type Catalog interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Promotions resolves and validates promotion codes.
type Promotions interface {
	Evaluate(ctx context.Context, code string, subtotal pricing.Money) (voucher.Rule, error)
}

// Locker serialises work on a key across API instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// ViewItem is a priced line of the cart view.
type ViewItem struct {
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Quantity  int           `json:"quantity"`
	LineTotal pricing.Money `json:"lineTotal"`
	Available bool          `json:"available"`
}

// PromotionView reports the code stored on the cart and whether it currently applies.
type PromotionView struct {
	Code   string `json:"code"`
	Rate   string `json:"rate,omitempty"`
	Active bool   `json:"active"`
	Reason string `json:"reason,omitempty"`
}

// View is the priced state of a cart session.
type View struct {
	SessionID string               `json:"sessionId"`
	Items     []ViewItem           `json:"items"`
	ItemCount int                  `json:"itemCount"`
	Mode      pricing.DeliveryMode `json:"mode"`
	Promotion *PromotionView       `json:"promotion,omitempty"`
	Breakdown pricing.Breakdown    `json:"breakdown"`
	UpdatedAt time.Time            `json:"updatedAt,omitempty"`
}

// Empty reports whether the view holds no line items.
func (v View) Empty() bool { return len(v.Items) == 0 }

// Change is delivered to observers after a successful mutation.
type Change struct {
	Op        string
	SessionID string
	View      View
}

// Observer is notified of committed cart changes.
type Observer interface {
	CartChanged(ctx context.Context, change Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, change Change)

// CartChanged implements Observer.
func (f ObserverFunc) CartChanged(ctx context.Context, change Change) { f(ctx, change) }

// Service owns the cart of each session: it loads the snapshot, applies one
// pricing operation and saves the result while holding the session lock.
type Service struct {
	Store      Store
	Catalog    Catalog
	Promotions Promotions
	Policy     pricing.ZeroQuantityPolicy
	// Locker is optional; without it sessions are serialised in process.
	Locker  Locker
	LockTTL time.Duration
	Logger  *zerolog.Logger
	Now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*sessionLock
	observers map[int]Observer
	nextObsID int
}

type state struct {
	cart      pricing.Cart
	products  map[string]catalog.Product
	code      string
	mode      pricing.DeliveryMode
	updatedAt time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

func (s *Service) policy() pricing.ZeroQuantityPolicy {
	if s.Policy == "" {
		return pricing.RemoveAtZero
	}
	return s.Policy
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// Subscribe registers o and returns a function that removes it.
func (s *Service) Subscribe(o Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = map[int]Observer{}
	}
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) notify(ctx context.Context, change Change) {
	s.mu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()
	for _, o := range observers {
		o.CartChanged(ctx, change)
	}
}

// sessionLock is a per-session mutex shared by every caller currently
// holding or waiting on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lockSession acquires the in-process lock for sessionID. The returned func
// releases it and forgets the entry once no other caller references it.
func (s *Service) lockSession(sessionID string) func() {
	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = map[string]*sessionLock{}
	}
	l, ok := s.sessions[sessionID]
	if !ok {
		l = &sessionLock{}
		s.sessions[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) withSession(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if s.Locker != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 5 * time.Second
		}
		return s.Locker.WithLock(ctx, "lock:cart:"+sessionID, ttl, fn)
	}
	unlock := s.lockSession(sessionID)
	defer unlock()
	return fn(ctx)
}

// View returns the priced cart for sessionID. Unknown sessions yield an empty cart.
func (s *Service) View(ctx context.Context, sessionID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.render(ctx, sessionID, st)
}

// AddItem adds qty units of productID, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, qty int) (View, error) {
	return s.mutate(ctx, sessionID, OpAddItem, func(ctx context.Context, st *state) error {
		if qty < 1 || qty > pricing.MaxQuantity {
			return fmt.Errorf("quantity %d: %w", qty, pricing.ErrInvalidQuantity)
		}
		product, err := s.Catalog.Product(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Available {
			return fmt.Errorf("%s: %w", product.ID, catalog.ErrUnavailable)
		}
		next, err := st.cart.AddItem(product.PricingProduct(), qty)
		if err != nil {
			return err
		}
		st.cart = next
		st.products[product.ID] = product
		return nil
	})
}

// RemoveItem drops productID from the cart. Absent products are a no-op.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (View, error) {
	return s.mutate(ctx, sessionID, OpRemoveItem, func(_ context.Context, st *state) error {
		st.cart = st.cart.RemoveItem(productID)
		return nil
	})
}

// UpdateQuantity adjusts the quantity of productID by delta, applying the
// configured policy when the result drops below one.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, delta int) (View, error) {
	return s.mutate(ctx, sessionID, OpUpdateQuantity, func(_ context.Context, st *state) error {
		if item, ok := st.cart.Item(productID); ok && delta > pricing.MaxQuantity-item.Quantity {
			return fmt.Errorf("%s: %d + %d exceeds %d: %w", productID, item.Quantity, delta, pricing.MaxQuantity, pricing.ErrInvalidQuantity)
		}
		st.cart = st.cart.UpdateQuantity(productID, delta, s.policy())
		return nil
	})
}

// ApplyPromotion validates code against the current subtotal and stores it,
// replacing any previously applied code.
func (s *Service) ApplyPromotion(ctx context.Context, sessionID, code string) (View, error) {
	view, err := s.mutate(ctx, sessionID, OpApplyPromotion, func(ctx context.Context, st *state) error {
		if s.Promotions == nil {
			return errors.New("promotions not configured")
		}
		rule, err := s.Promotions.Evaluate(ctx, code, st.cart.Subtotal())
		if err != nil {
			return err
		}
		st.code = rule.Code
		return nil
	})
	recordPromotion(err)
	return view, err
}

// RemovePromotion clears the applied code.
func (s *Service) RemovePromotion(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, OpRemovePromotion, func(_ context.Context, st *state) error {
		st.code = ""
		return nil
	})
}

// SetDeliveryMode switches between delivery and pickup.
func (s *Service) SetDeliveryMode(ctx context.Context, sessionID string, mode pricing.DeliveryMode) (View, error) {
	return s.mutate(ctx, sessionID, OpSetDeliveryMode, func(_ context.Context, st *state) error {
		parsed, err := pricing.ParseDeliveryMode(string(mode))
		if err != nil {
			return err
		}
		st.mode = parsed
		return nil
	})
}

// Clear empties the cart and forgets the session snapshot.
func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, OpClear, func(_ context.Context, st *state) error {
		*st = newState()
		return nil
	})
}

// Checkout hands the current view to fn while holding the session lock and
// clears the cart only when fn succeeds.
func (s *Service) Checkout(ctx context.Context, sessionID string, fn func(context.Context, View) error) error {
	_, err := s.mutate(ctx, sessionID, OpCheckout, func(ctx context.Context, st *state) error {
		view, err := s.render(ctx, sessionID, *st)
		if err != nil {
			return err
		}
		if err := fn(ctx, view); err != nil {
			return err
		}
		*st = newState()
		return nil
	})
	return err
}

func (s *Service) mutate(ctx context.Context, sessionID, op string, fn func(context.Context, *state) error) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return View{}, errors.New("session id is required")
	}
	ctx, span := obs.StartSpan(ctx, "cart."+op, attribute.String("cart.session_id", sessionID))
	defer span.End()

	var view View
	err := s.withSession(ctx, sessionID, func(ctx context.Context) error {
		st, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(ctx, &st); err != nil {
			return err
		}
		st.updatedAt = s.now().UTC()
		if view, err = s.render(ctx, sessionID, st); err != nil {
			return err
		}
		if err := s.save(ctx, sessionID, st); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		return nil
	})
	recordMutation(op, err)
	if err != nil {
		span.RecordError(err)
		return View{}, err
	}
	s.notify(ctx, Change{Op: op, SessionID: sessionID, View: view})
	return view, nil
}

func newState() state {
	return state{products: map[string]catalog.Product{}, mode: DefaultMode}
}

// load rebuilds the cart from the snapshot, resolving unit prices from the
// catalogue. Products that left the catalogue are dropped.
func (s *Service) load(ctx context.Context, sessionID string) (state, error) {
	snap, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return state{}, fmt.Errorf("load cart: %w", err)
	}
	st := newState()
	st.code = snap.PromotionCode
	st.updatedAt = snap.UpdatedAt
	if snap.Mode != "" {
		if mode, err := pricing.ParseDeliveryMode(string(snap.Mode)); err == nil {
			st.mode = mode
		}
	}
	for _, item := range snap.Items {
		product, err := s.Catalog.Product(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				s.logger().Warn().Str("session_id", sessionID).Str("product_id", item.ProductID).Msg("cart item dropped: product no longer in catalogue")
				continue
			}
			return state{}, err
		}
		next, err := st.cart.AddItem(product.PricingProduct(), item.Quantity)
		if err != nil {
			s.logger().Warn().Err(err).Str("session_id", sessionID).Str("product_id", item.ProductID).Msg("cart item dropped: invalid snapshot line")
			continue
		}
		st.cart = next
		st.products[product.ID] = product
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, sessionID string, st state) error {
	if st.cart.Empty() && st.code == "" && st.mode == DefaultMode {
		return s.Store.Delete(ctx, sessionID)
	}
	items := st.cart.Items()
	snap := Snapshot{
		Items:         make([]SnapshotItem, 0, len(items)),
		PromotionCode: st.code,
		Mode:          st.mode,
		UpdatedAt:     st.updatedAt,
	}
	for _, it := range items {
		snap.Items = append(snap.Items, SnapshotItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return s.Store.Save(ctx, sessionID, snap)
}

func (s *Service) render(ctx context.Context, sessionID string, st state) (View, error) {
	subtotal := st.cart.Subtotal()
	var promo *pricing.Promotion
	var pv *PromotionView
	if st.code != "" {
		pv = &PromotionView{Code: st.code}
		if s.Promotions == nil {
			pv.Reason = "promotions unavailable"
		} else {
			rule, err := s.Promotions.Evaluate(ctx, st.code, subtotal)
			switch {
			case err == nil:
				p := rule.Promotion()
				promo = &p
				pv.Active = true
				pv.Rate = rule.Rate.String()
			case isPromotionRejection(err):
				pv.Reason = err.Error()
			default:
				return View{}, err
			}
		}
	}
	breakdown, err := pricing.Compute(st.cart, promo, st.mode)
	if err != nil {
		return View{}, err
	}
	items := st.cart.Items()
	view := View{
		SessionID: sessionID,
		Items:     make([]ViewItem, 0, len(items)),
		ItemCount: st.cart.Quantity(),
		Mode:      st.mode,
		Promotion: pv,
		Breakdown: breakdown,
		UpdatedAt: st.updatedAt,
	}
	for _, it := range items {
		product := st.products[it.ProductID]
		view.Items = append(view.Items, ViewItem{
			ProductID: it.ProductID,
			Name:      product.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.Total(),
			Available: product.Available,
		})
	}
	return view, nil
}

func isPromotionRejection(err error) bool {
	return errors.Is(err, voucher.ErrNotFound) ||
		errors.Is(err, voucher.ErrVoucherInactive) ||
		errors.Is(err, voucher.ErrVoucherExpired) ||
		errors.Is(err, voucher.ErrMinimumSpendUnmet)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pricing.ErrInvalidQuantity), errors.Is(err, pricing.ErrInvalidDeliveryMode), errors.Is(err, pricing.ErrInvalidPromotion):
		return "invalid"
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, pricing.ErrUnknownProduct), errors.Is(err, voucher.ErrNotFound):
		return "not_found"
	case errors.Is(err, catalog.ErrUnavailable), isPromotionRejection(err):
		return "rejected"
	default:
		return "error"
	}
}

func recordMutation(op string, err error) {
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	}
}

func recordPromotion(err error) {
	if obs.PromotionApplyTotal == nil {
		return
	}
	result := "applied"
	if err != nil {
		result = resultLabel(err)
	}
	obs.PromotionApplyTotal.WithLabelValues(result).Inc()
}
