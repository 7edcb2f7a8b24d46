package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

// SnapshotItem is the persisted form of a line item. Prices are never stored.
type SnapshotItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Snapshot is the persisted state of one cart session.
type Snapshot struct {
	Items         []SnapshotItem       `json:"items"`
	PromotionCode string               `json:"promotionCode,omitempty"`
	Mode          pricing.DeliveryMode `json:"mode,omitempty"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// Store persists cart snapshots by session identifier. Load returns an empty
// snapshot when nothing is stored for the session.
type Store interface {
	Load(ctx context.Context, sessionID string) (Snapshot, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: map[string]Snapshot{}}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snaps[sessionID]
	snap.Items = append([]SnapshotItem(nil), snap.Items...)
	return snap, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = map[string]Snapshot{}
	}
	snap.Items = append([]SnapshotItem(nil), snap.Items...)
	m.snaps[sessionID] = snap
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, sessionID)
	return nil
}

// RedisStore keeps each snapshot as a JSON value under cart:{sessionID}. Every
// save refreshes the TTL so idle carts expire.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s RedisStore) key(sessionID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "cart:"
	}
	return prefix + sessionID
}

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s RedisStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	raw, err := s.Client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return snap, nil
}

func (s RedisStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(sessionID), raw, s.ttl()).Err()
}

func (s RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, s.key(sessionID)).Err()
}
