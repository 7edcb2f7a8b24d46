package voucher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store persists promotion rules keyed by their exact code.
type Store interface {
	Get(ctx context.Context, code string) (Rule, error)
	Put(ctx context.Context, rule Rule) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]Rule, error)
}

// MemoryStore keeps rules in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewMemoryStore returns a store seeded with rules.
func NewMemoryStore(rules ...Rule) *MemoryStore {
	s := &MemoryStore{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		s.rules[r.Code] = r
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, code string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[code]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) Put(_ context.Context, rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rules == nil {
		s.rules = map[string]Rule{}
	}
	s.rules[rule.Code] = rule
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[code]; !ok {
		return ErrNotFound
	}
	delete(s.rules, code)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sortRules(out)
	return out, nil
}

// RedisStore keeps rules as JSON values in a single Redis hash.
type RedisStore struct {
	Client *redis.Client
	Key    string
}

func (s RedisStore) key() string {
	if s.Key == "" {
		return "promotions"
	}
	return s.Key
}

func (s RedisStore) Get(ctx context.Context, code string) (Rule, error) {
	raw, err := s.Client.HGet(ctx, s.key(), code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	var r Rule
	if err := json.Unmarshal(raw, &r); err != nil {
		return Rule{}, fmt.Errorf("decode promotion %s: %w", code, err)
	}
	return r, nil
}

func (s RedisStore) Put(ctx context.Context, rule Rule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	return s.Client.HSet(ctx, s.key(), rule.Code, raw).Err()
}

func (s RedisStore) Delete(ctx context.Context, code string) error {
	n, err := s.Client.HDel(ctx, s.key(), code).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s RedisStore) List(ctx context.Context) ([]Rule, error) {
	all, err := s.Client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Rule, 0, len(all))
	for code, raw := range all {
		var r Rule
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode promotion %s: %w", code, err)
		}
		out = append(out, r)
	}
	sortRules(out)
	return out, nil
}

func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].Code < rules[j].Code })
}
