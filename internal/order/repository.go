package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// Update loads the order, applies fn and stores the result atomically.
	Update(ctx context.Context, id string, fn func(*Order) error) (Order, error)
	// List returns orders newest first. An empty customerID lists every order.
	List(ctx context.Context, customerID string, offset, limit int) ([]Order, int, error)
}

// MemoryRepository keeps orders in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: map[string]Order{}}
}

func (m *MemoryRepository) Create(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orders == nil {
		m.orders = map[string]Order{}
	}
	if _, exists := m.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	m.orders[o.ID] = clone(o)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o), nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, fn func(*Order) error) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	o = clone(o)
	if err := fn(&o); err != nil {
		return Order{}, err
	}
	m.orders[id] = o
	return clone(o), nil
}

func (m *MemoryRepository) List(_ context.Context, customerID string, offset, limit int) ([]Order, int, error) {
	m.mu.RLock()
	all := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if customerID != "" && o.CustomerID != customerID {
			continue
		}
		all = append(all, clone(o))
	}
	m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []Order{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func clone(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

// RedisRepository stores each order as JSON under order:{id} and indexes
// creation time in sorted sets for listing.
type RedisRepository struct {
	Client *redis.Client
}

const allOrdersKey = "orders:all"

func orderKey(id string) string { return "order:" + id }

func customerKey(customerID string) string { return "orders:customer:" + customerID }

func (r RedisRepository) Create(ctx context.Context, o Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	ok, err := r.Client.SetNX(ctx, orderKey(o.ID), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	score := float64(o.CreatedAt.UnixNano())
	pipe := r.Client.TxPipeline()
	pipe.ZAdd(ctx, allOrdersKey, redis.Z{Score: score, Member: o.ID})
	if o.CustomerID != "" {
		pipe.ZAdd(ctx, customerKey(o.CustomerID), redis.Z{Score: score, Member: o.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r RedisRepository) Get(ctx context.Context, id string) (Order, error) {
	raw, err := r.Client.Get(ctx, orderKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return decodeOrder(raw)
}

func (r RedisRepository) Update(ctx context.Context, id string, fn func(*Order) error) (Order, error) {
	key := orderKey(id)
	var updated Order
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		o, err := decodeOrder(raw)
		if err != nil {
			return err
		}
		if err := fn(&o); err != nil {
			return err
		}
		encoded, err := json.Marshal(o)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			updated = o
		}
		return err
	}
	for attempt := 0; attempt < 5; attempt++ {
		err := r.Client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Order{}, err
		}
		return updated, nil
	}
	return Order{}, fmt.Errorf("update order %s: too much contention", id)
}

func (r RedisRepository) List(ctx context.Context, customerID string, offset, limit int) ([]Order, int, error) {
	index := allOrdersKey
	if customerID != "" {
		index = customerKey(customerID)
	}
	total, err := r.Client.ZCard(ctx, index).Result()
	if err != nil {
		return nil, 0, err
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}
	ids, err := r.Client.ZRevRange(ctx, index, int64(offset), stop).Result()
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []Order{}, int(total), nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKey(id)
	}
	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, err
	}
	out := make([]Order, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		o, err := decodeOrder([]byte(s))
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, int(total), nil
}

func decodeOrder(raw []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}
