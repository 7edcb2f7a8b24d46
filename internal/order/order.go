package order

import (
	"errors"
	"time"

	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

var (
	// ErrNotFound is returned when no order matches the identifier.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a status change would move backwards or skip the ladder rules.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Item is a line of a placed order. Prices are frozen at submission time.
type Item struct {
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Quantity  int           `json:"quantity"`
	LineTotal pricing.Money `json:"lineTotal"`
}

// Order is a submitted cart.
type Order struct {
	ID            string               `json:"id"`
	SessionID     string               `json:"sessionId"`
	CustomerID    string               `json:"customerId,omitempty"`
	CustomerName  string               `json:"customerName"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address,omitempty"`
	Mode          pricing.DeliveryMode `json:"mode"`
	PaymentMethod string               `json:"paymentMethod"`
	Notes         string               `json:"notes,omitempty"`
	Items         []Item               `json:"items"`
	Breakdown     pricing.Breakdown    `json:"breakdown"`
	PromotionCode string               `json:"promotionCode,omitempty"`
	Status        Status               `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
