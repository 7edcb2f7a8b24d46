package events

import (
	"errors"
	"slices"
)

// ErrUnknownTopic is returned when emitting a topic outside DefaultTopics.
var ErrUnknownTopic = errors.New("unknown event topic")

// Topic constants for domain events emitted by the storefront.
const (
	TopicCartCleared        = "cart.cleared"
	TopicOrderCreated       = "order.created"
	TopicOrderConfirmed     = "order.confirmed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicLoyaltyAccrued     = "loyalty.accrued"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicCartCleared,
		TopicOrderCreated,
		TopicOrderConfirmed,
		TopicOrderStatusChanged,
		TopicLoyaltyAccrued,
	}
}

// KnownTopic reports whether topic is one of DefaultTopics.
func KnownTopic(topic string) bool {
	return slices.Contains(DefaultTopics(), topic)
}
