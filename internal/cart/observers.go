package cart

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/boulangerie-api/internal/events"
)

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// EventObserver emits cart.cleared whenever a session is emptied by a clear or
// a successful checkout.
func EventObserver(emitter Emitter, logger zerolog.Logger) Observer {
	return ObserverFunc(func(ctx context.Context, change Change) {
		if change.Op != OpClear && change.Op != OpCheckout {
			return
		}
		payload := map[string]any{"sessionId": change.SessionID, "reason": change.Op}
		if _, err := emitter.Emit(ctx, events.TopicCartCleared, change.SessionID, payload); err != nil {
			logger.Warn().Err(err).Str("session_id", change.SessionID).Msg("emit cart.cleared failed")
		}
	})
}
