package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/boulangerie-api/internal/cart"
	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

var (
	// ErrCartEmpty is returned when submitting a cart without items.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrAddressRequired is returned for delivery orders without an address.
	ErrAddressRequired = errors.New("delivery address is required")
	// ErrItemUnavailable is returned when a cart line is no longer orderable.
	ErrItemUnavailable = errors.New("cart contains unavailable products")
)

// DefaultConfirmDelay is the simulated payment confirmation delay.
const DefaultConfirmDelay = 3 * time.Second

// Input carries the customer details collected at checkout.
type Input struct {
	CustomerID    string `json:"customerId" validate:"max=64"`
	CustomerName  string `json:"customerName" validate:"required,max=120"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Address       string `json:"address" validate:"max=300"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash mobile_money card"`
	Notes         string `json:"notes" validate:"max=500"`
}

// Scheduler queues the delayed confirmation of an order.
type Scheduler interface {
	ScheduleOrderConfirmation(ctx context.Context, orderID string, delay time.Duration) error
}

// Service turns cart sessions into orders.
type Service struct {
	Carts     *cart.Service
	Orders    *order.Service
	Scheduler Scheduler
	Confirmer *Confirmer
	Delay     time.Duration
	Logger    *zerolog.Logger
}

// Submit places an order for the cart of sessionID. The cart is cleared only
// once the order is stored.
func (s *Service) Submit(ctx context.Context, sessionID string, in Input) (order.Order, error) {
	if s == nil || s.Carts == nil || s.Orders == nil {
		return order.Order{}, errors.New("checkout service not configured")
	}
	in = normalise(in)
	if err := common.ValidateStruct(in); err != nil {
		return order.Order{}, err
	}
	ctx, span := obs.StartSpan(ctx, "checkout.submit", attribute.String("cart.session_id", sessionID))
	defer span.End()

	var placed order.Order
	var mode pricing.DeliveryMode
	err := s.Carts.Checkout(ctx, sessionID, func(ctx context.Context, view cart.View) error {
		mode = view.Mode
		if err := check(view, in); err != nil {
			return err
		}
		created, err := s.Orders.Create(ctx, buildOrder(sessionID, view, in))
		if err != nil {
			return err
		}
		placed = created
		return nil
	})
	recordCheckout(mode, err)
	if err != nil {
		span.RecordError(err)
		return order.Order{}, err
	}
	if err := s.scheduleConfirmation(ctx, placed.ID); err != nil {
		if s.Logger != nil {
			s.Logger.Error().Err(err).Str("order_id", placed.ID).Msg("schedule order confirmation failed")
		}
		return placed, nil
	}
	if s.Scheduler == nil {
		if refreshed, err := s.Orders.Get(ctx, placed.ID); err == nil {
			placed = refreshed
		}
	}
	return placed, nil
}

func (s *Service) scheduleConfirmation(ctx context.Context, orderID string) error {
	if s.Scheduler != nil {
		delay := s.Delay
		if delay <= 0 {
			delay = DefaultConfirmDelay
		}
		return s.Scheduler.ScheduleOrderConfirmation(ctx, orderID, delay)
	}
	if s.Confirmer != nil {
		return s.Confirmer.Confirm(ctx, orderID)
	}
	return nil
}

func normalise(in Input) Input {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

func check(view cart.View, in Input) error {
	if view.Empty() {
		return ErrCartEmpty
	}
	for _, item := range view.Items {
		if !item.Available {
			return fmt.Errorf("%s: %w", item.ProductID, ErrItemUnavailable)
		}
	}
	if view.Mode == pricing.ModeDelivery && in.Address == "" {
		return ErrAddressRequired
	}
	return nil
}

func buildOrder(sessionID string, view cart.View, in Input) order.Order {
	items := make([]order.Item, 0, len(view.Items))
	for _, line := range view.Items {
		items = append(items, order.Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		})
	}
	o := order.Order{
		SessionID:     sessionID,
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		Phone:         in.Phone,
		Mode:          view.Mode,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Items:         items,
		Breakdown:     view.Breakdown,
	}
	if view.Mode == pricing.ModeDelivery {
		o.Address = in.Address
	}
	if view.Promotion != nil && view.Promotion.Active {
		o.PromotionCode = view.Promotion.Code
	}
	return o
}

func recordCheckout(mode pricing.DeliveryMode, err error) {
	if obs.CheckoutTotal == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrCartEmpty), errors.Is(err, ErrAddressRequired), errors.Is(err, ErrItemUnavailable):
		result = "rejected"
	default:
		result = "error"
	}
	if mode == "" {
		mode = cart.DefaultMode
	}
	obs.CheckoutTotal.WithLabelValues(string(mode), result).Inc()
}
