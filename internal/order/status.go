package order

import (
	"fmt"
	"strings"

	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// ParseStatus normalises value into a known Status.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if statusRank(s) == -2 {
		return "", fmt.Errorf("%q: %w", value, ErrInvalidStatus)
	}
	return s, nil
}

// Final reports whether no further transition is possible.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func statusRank(status Status) int {
	switch status {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusPreparing:
		return 2
	case StatusReady:
		return 3
	case StatusOutForDelivery:
		return 4
	case StatusDelivered:
		return 5
	case StatusCancelled:
		return -1
	default:
		return -2
	}
}

// CheckTransition validates moving an order in mode from one status to another.
// The ladder only moves forward; cancellation is allowed from any non-final state.
func CheckTransition(from, to Status, mode pricing.DeliveryMode) error {
	if statusRank(to) == -2 {
		return fmt.Errorf("%q: %w", to, ErrInvalidStatus)
	}
	if from.Final() {
		return fmt.Errorf("%s is final: %w", from, ErrInvalidTransition)
	}
	if to == StatusCancelled {
		return nil
	}
	if to == StatusOutForDelivery && mode != pricing.ModeDelivery {
		return fmt.Errorf("pickup orders are never out for delivery: %w", ErrInvalidTransition)
	}
	if statusRank(from) >= statusRank(to) {
		return fmt.Errorf("%s to %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}
