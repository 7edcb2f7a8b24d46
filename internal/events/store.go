package events

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps events in process memory, mainly for tests and local runs.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemoryStore) Append(_ context.Context, ev Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return ev, nil
}

// Events returns a copy of every stored event in emission order.
func (m *MemoryStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// RedisStreamStore appends events to a capped Redis stream.
type RedisStreamStore struct {
	Client *redis.Client
	Stream string
	MaxLen int64
}

func (s RedisStreamStore) stream() string {
	if s.Stream == "" {
		return "events"
	}
	return s.Stream
}

func (s RedisStreamStore) Append(ctx context.Context, ev Event) (Event, error) {
	maxLen := s.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	err := s.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream(),
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]any{
			"id":           ev.ID,
			"topic":        ev.Topic,
			"aggregate_id": ev.AggregateID,
			"payload":      string(ev.Payload),
			"occurred_at":  ev.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}
