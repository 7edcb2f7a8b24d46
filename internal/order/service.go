package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/events"
	"github.com/noah-isme/boulangerie-api/internal/obs"
)

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Service manages the order lifecycle.
type Service struct {
	Repo   Repository
	Events Emitter
	Logger *zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("order service not configured")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, topic string, o Order, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, o.ID, payload); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Str("order_id", o.ID).Str("topic", topic).Msg("emit order event failed")
	}
}

// Create assigns an identifier, stores o as pending and emits order.created.
func (s *Service) Create(ctx context.Context, o Order) (Order, error) {
	if err := s.ready(); err != nil {
		return Order{}, err
	}
	if len(o.Items) == 0 {
		return Order{}, errors.New("order has no items")
	}
	now := s.now().UTC()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Status = StatusPending
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := s.Repo.Create(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	if obs.OrderValue != nil {
		obs.OrderValue.Observe(float64(o.Breakdown.Total))
	}
	if obs.OrderStatusTotal != nil {
		obs.OrderStatusTotal.WithLabelValues(string(StatusPending)).Inc()
	}
	s.emit(ctx, events.TopicOrderCreated, o, map[string]any{
		"orderId":    o.ID,
		"customerId": o.CustomerID,
		"mode":       o.Mode,
		"total":      o.Breakdown.Total,
	})
	return o, nil
}

// Get returns the order identified by id.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if err := s.ready(); err != nil {
		return Order{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Order{}, ErrNotFound
	}
	return s.Repo.Get(ctx, id)
}

// List returns one page of all orders, newest first, with the total count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Order, int, error) {
	return s.list(ctx, "", page, perPage)
}

// ListByCustomer returns one page of a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, page, perPage int) ([]Order, int, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, 0, errors.New("customer id is required")
	}
	return s.list(ctx, customerID, page, perPage)
}

func (s *Service) list(ctx context.Context, customerID string, page, perPage int) ([]Order, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return s.Repo.List(ctx, customerID, (page-1)*perPage, perPage)
}

// UpdateStatus moves the order to target and emits order.status_changed.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status) (Order, error) {
	if err := s.ready(); err != nil {
		return Order{}, err
	}
	var previous Status
	updated, err := s.Repo.Update(ctx, id, func(o *Order) error {
		if err := CheckTransition(o.Status, target, o.Mode); err != nil {
			return err
		}
		previous = o.Status
		o.Status = target
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	if obs.OrderStatusTotal != nil {
		obs.OrderStatusTotal.WithLabelValues(string(target)).Inc()
	}
	s.emit(ctx, events.TopicOrderStatusChanged, updated, map[string]any{
		"orderId": updated.ID,
		"from":    previous,
		"to":      target,
	})
	return updated, nil
}
