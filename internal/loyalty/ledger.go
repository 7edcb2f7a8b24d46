package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidAccrual is returned for empty identifiers or negative points.
var ErrInvalidAccrual = errors.New("invalid loyalty accrual")

// Accrual is the outcome of crediting points for one order.
type Accrual struct {
	CustomerID string `json:"customerId"`
	OrderID    string `json:"orderId"`
	Points     int64  `json:"points"`
	Balance    int64  `json:"balance"`
	// Applied is false when the order had already been credited.
	Applied bool `json:"applied"`
}

// Ledger tracks customer point balances. Accrue credits an order at most once.
type Ledger interface {
	Accrue(ctx context.Context, customerID, orderID string, points int64) (Accrual, error)
	Balance(ctx context.Context, customerID string) (int64, error)
}

func checkAccrual(customerID, orderID string, points int64) error {
	if strings.TrimSpace(customerID) == "" || strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("customer and order ids are required: %w", ErrInvalidAccrual)
	}
	if points < 0 {
		return fmt.Errorf("negative points %d: %w", points, ErrInvalidAccrual)
	}
	return nil
}

// MemoryLedger keeps balances in process memory.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	credited map[string]struct{}
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: map[string]int64{}, credited: map[string]struct{}{}}
}

func (m *MemoryLedger) Accrue(_ context.Context, customerID, orderID string, points int64) (Accrual, error) {
	if err := checkAccrual(customerID, orderID, points); err != nil {
		return Accrual{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances == nil {
		m.balances = map[string]int64{}
		m.credited = map[string]struct{}{}
	}
	out := Accrual{CustomerID: customerID, OrderID: orderID, Points: points}
	if _, done := m.credited[orderID]; !done {
		m.credited[orderID] = struct{}{}
		m.balances[customerID] += points
		out.Applied = true
	}
	out.Balance = m.balances[customerID]
	return out, nil
}

func (m *MemoryLedger) Balance(_ context.Context, customerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[customerID], nil
}

// accrueScript marks the order as credited and increments the balance in one step.
var accrueScript = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[2]) == 1 then
  return {1, redis.call("INCRBY", KEYS[2], ARGV[1])}
end
return {0, tonumber(redis.call("GET", KEYS[2]) or "0")}
`)

// RedisLedger stores balances at loyalty:balance:{customerID} and guards each
// order with a loyalty:order:{orderID} marker.
type RedisLedger struct {
	Client *redis.Client
}

func balanceKey(customerID string) string { return "loyalty:balance:" + customerID }

func orderMarkerKey(orderID string) string { return "loyalty:order:" + orderID }

func (l RedisLedger) Accrue(ctx context.Context, customerID, orderID string, points int64) (Accrual, error) {
	if err := checkAccrual(customerID, orderID, points); err != nil {
		return Accrual{}, err
	}
	res, err := accrueScript.Run(ctx, l.Client, []string{orderMarkerKey(orderID), balanceKey(customerID)}, points, customerID).Int64Slice()
	if err != nil {
		return Accrual{}, fmt.Errorf("accrue loyalty points: %w", err)
	}
	if len(res) != 2 {
		return Accrual{}, fmt.Errorf("accrue loyalty points: unexpected reply %v", res)
	}
	return Accrual{
		CustomerID: customerID,
		OrderID:    orderID,
		Points:     points,
		Balance:    res[1],
		Applied:    res[0] == 1,
	}, nil
}

func (l RedisLedger) Balance(ctx context.Context, customerID string) (int64, error) {
	v, err := l.Client.Get(ctx, balanceKey(customerID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}
