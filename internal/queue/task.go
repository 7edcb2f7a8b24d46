package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

// TypeOrderConfirm confirms a pending order once the simulated payment delay elapses.
const TypeOrderConfirm = "order:confirm"

// OrderConfirmPayload is the body of an order:confirm task.
type OrderConfirmPayload struct {
	OrderID string `json:"orderId"`
}

// NewOrderConfirmTask builds the task for orderID.
func NewOrderConfirmTask(orderID string) (*asynq.Task, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("queue: order id is required")
	}
	raw, err := json.Marshal(OrderConfirmPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderConfirm, raw), nil
}

// ParseOrderConfirm decodes the payload of an order:confirm task.
func ParseOrderConfirm(t *asynq.Task) (OrderConfirmPayload, error) {
	var p OrderConfirmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return OrderConfirmPayload{}, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.OrderID == "" {
		return OrderConfirmPayload{}, fmt.Errorf("%s payload missing order id", t.Type())
	}
	return p, nil
}

func confirmTaskID(orderID string) string {
	return TypeOrderConfirm + ":" + orderID
}
