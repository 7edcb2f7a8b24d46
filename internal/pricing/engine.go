package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in whole francs.
type Money = int64

// DeliveryFee is charged once per non-empty cart in delivery mode.
const DeliveryFee Money = 1500

// PointsUnit is the amount of total paid that earns one loyalty point.
const PointsUnit Money = 100

// Promotion is an active discount token applied to the subtotal.
type Promotion struct {
	Code string
	Rate decimal.Decimal
}

// Validate reports whether the discount rate lies within [0,1].
func (p Promotion) Validate() error {
	if p.Rate.IsNegative() || p.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate %s outside [0,1]: %w", p.Rate.String(), ErrInvalidPromotion)
	}
	return nil
}

// Breakdown aggregates computed pricing components.
type Breakdown struct {
	Subtotal      Money `json:"subtotal"`
	DeliveryFee   Money `json:"deliveryFee"`
	Discount      Money `json:"discount"`
	Total         Money `json:"total"`
	LoyaltyPoints int64 `json:"loyaltyPoints"`
}

// Compute prices the cart for the given promotion and delivery mode.
func Compute(cart Cart, promo *Promotion, mode DeliveryMode) (Breakdown, error) {
	subtotal := cart.Subtotal()

	var fee Money
	if mode == ModeDelivery && !cart.Empty() {
		fee = DeliveryFee
	}

	var discount Money
	if promo != nil {
		if err := promo.Validate(); err != nil {
			return Breakdown{}, err
		}
		discount = DiscountFor(subtotal, promo.Rate)
	}

	total := subtotal + fee - discount
	if total < 0 {
		total = 0
	}
	return Breakdown{
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Discount:      discount,
		Total:         total,
		LoyaltyPoints: LoyaltyPoints(total),
	}, nil
}

// DiscountFor returns floor(subtotal * rate) using exact decimal arithmetic.
func DiscountFor(subtotal Money, rate decimal.Decimal) Money {
	if subtotal <= 0 || !rate.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(rate).Floor().IntPart()
}

// LoyaltyPoints returns the points earned for a paid total.
func LoyaltyPoints(total Money) int64 {
	if total <= 0 {
		return 0
	}
	return total / PointsUnit
}
