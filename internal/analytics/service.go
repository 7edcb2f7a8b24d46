package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/boulangerie-api/internal/order"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

// OrderLister pages through placed orders, newest first.
type OrderLister interface {
	List(ctx context.Context, page, perPage int) ([]order.Order, int, error)
}

// DailySales aggregates non-cancelled orders per calendar day (UTC).
type DailySales struct {
	Day       string        `json:"day"`
	Orders    int           `json:"orders"`
	Revenue   pricing.Money `json:"revenue"`
	Discounts pricing.Money `json:"discounts"`
	Delivery  int           `json:"delivery"`
	Pickup    int           `json:"pickup"`
}

// ProductSales ranks products by quantity sold.
type ProductSales struct {
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	Revenue   pricing.Money `json:"revenue"`
}

// Service computes back-office sales reports with a short Redis cache.
type Service struct {
	Orders       OrderLister
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

const scanPageSize = 200

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns one row per day with orders in [from, to).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if s == nil || s.Orders == nil {
		return nil, errors.New("analytics service not configured")
	}
	key := cacheKey("an", "sales", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	var rows []DailySales
	if s.load(ctx, key, &rows) {
		return rows, nil
	}
	byDay := map[string]*DailySales{}
	err := s.scan(ctx, func(o order.Order) bool {
		if o.CreatedAt.Before(from) {
			return false
		}
		if !o.CreatedAt.Before(to) || o.Status == order.StatusCancelled {
			return true
		}
		day := o.CreatedAt.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &DailySales{Day: day}
			byDay[day] = row
		}
		row.Orders++
		row.Revenue += o.Breakdown.Total
		row.Discounts += o.Breakdown.Discount
		if o.Mode == pricing.ModePickup {
			row.Pickup++
		} else {
			row.Delivery++
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	rows = make([]DailySales, 0, len(byDay))
	for _, row := range byDay {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best sellers across all non-cancelled orders.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if s == nil || s.Orders == nil {
		return nil, errors.New("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("an", "top", limit)
	var rows []ProductSales
	if s.load(ctx, key, &rows) {
		return rows, nil
	}
	byProduct := map[string]*ProductSales{}
	err := s.scan(ctx, func(o order.Order) bool {
		if o.Status == order.StatusCancelled {
			return true
		}
		for _, item := range o.Items {
			row, ok := byProduct[item.ProductID]
			if !ok {
				row = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = row
			}
			row.Quantity += item.Quantity
			row.Revenue += item.LineTotal
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	rows = make([]ProductSales, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Quantity != rows[j].Quantity {
			return rows[i].Quantity > rows[j].Quantity
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// scan visits orders newest first until fn returns false.
func (s *Service) scan(ctx context.Context, fn func(order.Order) bool) error {
	for page := 1; ; page++ {
		orders, total, err := s.Orders.List(ctx, page, scanPageSize)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		for _, o := range orders {
			if !fn(o) {
				return nil
			}
		}
		if len(orders) == 0 || page*scanPageSize >= total {
			return nil
		}
	}
}

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
