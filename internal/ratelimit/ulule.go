package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Ulule adapts a ulule/limiter store to the Allower interface.
type Ulule struct {
	Store limiter.Store
}

// NewUlule builds an Ulule limiter backed by Redis.
func NewUlule(client *redis.Client, prefix string) (Ulule, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return Ulule{}, err
	}
	return Ulule{Store: store}, nil
}

// Allow consumes one request for key using a fixed window of window and max.
func (u Ulule) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if u.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(u.Store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
