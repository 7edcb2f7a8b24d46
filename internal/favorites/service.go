package favorites

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/boulangerie-api/internal/catalog"
)

// Store keeps favourite product ids per session.
type Store interface {
	Add(ctx context.Context, sessionID, productID string) error
	Remove(ctx context.Context, sessionID, productID string) error
	List(ctx context.Context, sessionID string) ([]string, error)
}

// MemoryStore keeps favourites in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: map[string]map[string]struct{}{}}
}

func (m *MemoryStore) Add(_ context.Context, sessionID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets == nil {
		m.sets = map[string]map[string]struct{}{}
	}
	set, ok := m.sets[sessionID]
	if !ok {
		set = map[string]struct{}{}
		m.sets[sessionID] = set
	}
	set[productID] = struct{}{}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[sessionID], productID)
	return nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sets[sessionID]))
	for id := range m.sets[sessionID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// RedisStore keeps favourites in the set favorites:{sessionID}.
type RedisStore struct {
	Client *redis.Client
}

func setKey(sessionID string) string { return "favorites:" + sessionID }

func (s RedisStore) Add(ctx context.Context, sessionID, productID string) error {
	return s.Client.SAdd(ctx, setKey(sessionID), productID).Err()
}

func (s RedisStore) Remove(ctx context.Context, sessionID, productID string) error {
	return s.Client.SRem(ctx, setKey(sessionID), productID).Err()
}

func (s RedisStore) List(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.Client.SMembers(ctx, setKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Catalog resolves favourite product ids.
type Catalog interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

type Service struct {
	Store   Store
	Catalog Catalog
}

// Add marks productID as a favourite after checking it exists in the catalogue.
func (s *Service) Add(ctx context.Context, sessionID, productID string) error {
	productID = strings.TrimSpace(productID)
	if _, err := s.Catalog.Product(ctx, productID); err != nil {
		return err
	}
	return s.Store.Add(ctx, sessionID, productID)
}

func (s *Service) Remove(ctx context.Context, sessionID, productID string) error {
	return s.Store.Remove(ctx, sessionID, strings.TrimSpace(productID))
}

// List returns the favourite products still present in the catalogue.
func (s *Service) List(ctx context.Context, sessionID string) ([]catalog.Product, error) {
	ids, err := s.Store.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.Catalog.Product(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
