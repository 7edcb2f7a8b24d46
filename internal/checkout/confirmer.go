package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/events"
	"github.com/noah-isme/boulangerie-api/internal/loyalty"
	"github.com/noah-isme/boulangerie-api/internal/obs"
	"github.com/noah-isme/boulangerie-api/internal/order"
)

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Confirmer completes the simulated payment of an order.
type Confirmer struct {
	Orders *order.Service
	Ledger loyalty.Ledger
	Events Emitter
	Logger *zerolog.Logger
}

// Confirm moves a pending order to confirmed and credits its loyalty points.
// Confirming an order twice credits it once.
func (c *Confirmer) Confirm(ctx context.Context, orderID string) error {
	if c == nil || c.Orders == nil {
		return errors.New("order confirmer not configured")
	}
	current, err := c.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	switch current.Status {
	case order.StatusPending:
		current, err = c.Orders.UpdateStatus(ctx, orderID, order.StatusConfirmed)
		if err != nil {
			return err
		}
		c.emit(ctx, events.TopicOrderConfirmed, current.ID, map[string]any{
			"orderId":    current.ID,
			"customerId": current.CustomerID,
			"total":      current.Breakdown.Total,
		})
	case order.StatusCancelled:
		return fmt.Errorf("order %s is cancelled: %w", orderID, order.ErrInvalidTransition)
	}
	return c.accrue(ctx, current)
}

func (c *Confirmer) accrue(ctx context.Context, o order.Order) error {
	if c.Ledger == nil || o.CustomerID == "" || o.Breakdown.LoyaltyPoints <= 0 {
		return nil
	}
	accrual, err := c.Ledger.Accrue(ctx, o.CustomerID, o.ID, o.Breakdown.LoyaltyPoints)
	if err != nil {
		return fmt.Errorf("accrue loyalty: %w", err)
	}
	if !accrual.Applied {
		return nil
	}
	if obs.LoyaltyPointsAccrued != nil {
		obs.LoyaltyPointsAccrued.Add(float64(accrual.Points))
	}
	c.emit(ctx, events.TopicLoyaltyAccrued, o.CustomerID, accrual)
	return nil
}

func (c *Confirmer) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if c.Events == nil {
		return
	}
	if _, err := c.Events.Emit(ctx, topic, aggregateID, payload); err != nil && c.Logger != nil {
		c.Logger.Warn().Err(err).Str("topic", topic).Str("aggregate_id", aggregateID).Msg("emit checkout event failed")
	}
}
