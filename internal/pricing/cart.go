package pricing

import (
	"fmt"
	"strings"
)

// DeliveryMode selects how the order reaches the customer.
type DeliveryMode string

const (
	// ModeDelivery incurs the fixed delivery fee.
	ModeDelivery DeliveryMode = "delivery"
	// ModePickup is click & collect at the bakery, no fee.
	ModePickup DeliveryMode = "pickup"
)

// ParseDeliveryMode normalises user input into a DeliveryMode.
func ParseDeliveryMode(value string) (DeliveryMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "delivery", "livraison":
		return ModeDelivery, nil
	case "pickup", "collect", "click_and_collect", "click-and-collect":
		return ModePickup, nil
	}
	return "", fmt.Errorf("delivery mode %q: %w", value, ErrInvalidDeliveryMode)
}

// ZeroQuantityPolicy controls what happens when a quantity update reaches zero or below.
type ZeroQuantityPolicy string

const (
	// RemoveAtZero drops the line item.
	RemoveAtZero ZeroQuantityPolicy = "remove"
	// ClampAtOne keeps the line item with quantity 1.
	ClampAtOne ZeroQuantityPolicy = "clamp"
)

// ParseZeroQuantityPolicy reads a policy name, defaulting to RemoveAtZero for empty input.
func ParseZeroQuantityPolicy(value string) (ZeroQuantityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "remove":
		return RemoveAtZero, nil
	case "clamp":
		return ClampAtOne, nil
	}
	return "", fmt.Errorf("unknown zero quantity policy %q", value)
}

// Bounds keep every line total and subtotal far from int64 overflow.
const (
	// MaxQuantity is the largest quantity a single line may hold.
	MaxQuantity = 999
	// MaxUnitPrice is the largest accepted unit price, in francs.
	MaxUnitPrice Money = 1_000_000_000
)

// Product is the part of a catalog record the engine reads.
type Product struct {
	ID    string
	Price Money
}

// LineItem is one product and quantity entry within a cart.
type LineItem struct {
	ProductID string `json:"productId"`
	UnitPrice Money  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Total returns unitPrice * quantity.
func (l LineItem) Total() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// Cart is an immutable collection of line items keyed by product.
// Every operation returns a new Cart and leaves the receiver untouched.
type Cart struct {
	items []LineItem
}

// NewCart builds a cart from line items, merging duplicates by product id.
func NewCart(items ...LineItem) (Cart, error) {
	var c Cart
	for _, it := range items {
		next, err := c.AddItem(Product{ID: it.ProductID, Price: it.UnitPrice}, it.Quantity)
		if err != nil {
			return Cart{}, err
		}
		c = next
	}
	return c, nil
}

// Items returns a copy of the line items in insertion order.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct line items.
func (c Cart) Len() int { return len(c.items) }

// Empty reports whether the cart holds no line items.
func (c Cart) Empty() bool { return len(c.items) == 0 }

// Item returns the line item for productID if present.
func (c Cart) Item(productID string) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.items[i], true
	}
	return LineItem{}, false
}

// Quantity returns the total number of units across all lines.
func (c Cart) Quantity() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums unitPrice * quantity over all line items.
func (c Cart) Subtotal() Money {
	var subtotal Money
	for _, it := range c.items {
		subtotal += it.Total()
	}
	return subtotal
}

// AddItem inserts the product or increments the existing line by qty.
// The merged quantity may not exceed MaxQuantity.
func (c Cart) AddItem(p Product, qty int) (Cart, error) {
	if qty < 1 || qty > MaxQuantity {
		return c, fmt.Errorf("qty %d outside 1..%d: %w", qty, MaxQuantity, ErrInvalidQuantity)
	}
	if strings.TrimSpace(p.ID) == "" {
		return c, fmt.Errorf("product id required: %w", ErrUnknownProduct)
	}
	if p.Price < 0 || p.Price > MaxUnitPrice {
		return c, fmt.Errorf("product %s price %d: %w", p.ID, p.Price, ErrInvalidPrice)
	}
	items := c.Items()
	if i := c.index(p.ID); i >= 0 {
		if items[i].Quantity > MaxQuantity-qty {
			return c, fmt.Errorf("%s: %d + %d exceeds %d: %w", p.ID, items[i].Quantity, qty, MaxQuantity, ErrInvalidQuantity)
		}
		items[i].Quantity += qty
		return Cart{items: items}, nil
	}
	items = append(items, LineItem{ProductID: p.ID, UnitPrice: p.Price, Quantity: qty})
	return Cart{items: items}, nil
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func (c Cart) RemoveItem(productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	items := make([]LineItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}
}

// UpdateQuantity adds delta to the line for productID. When the result drops
// to zero or below the policy either removes the line or clamps it at one.
// Results above MaxQuantity are capped.
func (c Cart) UpdateQuantity(productID string, delta int, policy ZeroQuantityPolicy) Cart {
	i := c.index(productID)
	if i < 0 || delta == 0 {
		return c
	}
	current := c.items[i].Quantity
	if delta > MaxQuantity-current {
		items := c.Items()
		items[i].Quantity = MaxQuantity
		return Cart{items: items}
	}
	qty := current + delta
	if qty <= 0 {
		if policy == ClampAtOne {
			qty = 1
		} else {
			return c.RemoveItem(productID)
		}
	}
	items := c.Items()
	items[i].Quantity = qty
	return Cart{items: items}
}

// Reprice replaces unit prices using lookup; lines whose product cannot be
// resolved are dropped and their ids returned.
func (c Cart) Reprice(lookup func(productID string) (Money, bool)) (Cart, []string) {
	var dropped []string
	items := make([]LineItem, 0, len(c.items))
	for _, it := range c.items {
		price, ok := lookup(it.ProductID)
		if !ok || price < 0 || price > MaxUnitPrice {
			dropped = append(dropped, it.ProductID)
			continue
		}
		it.UnitPrice = price
		items = append(items, it)
	}
	return Cart{items: items}, dropped
}

func (c Cart) index(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
