package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims the window, admits the request only while under the
// limit and reports the instant the oldest admitted request leaves the window.
// Scores are unix milliseconds.
var slidingScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, window)
local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
	reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// Sliding is a sliding-window limiter over Redis sorted sets. Rejected
// requests do not consume the window.
type Sliding struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func (s Sliding) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Allow records one request for key when it fits in max per window.
func (s Sliding) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := s.now()
	if s.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}
	windowMS := window.Milliseconds()
	if windowMS < 1 {
		windowMS = 1
	}
	res, err := slidingScript.Run(ctx, s.Client, []string{s.Prefix + key},
		now.UnixMilli(), windowMS, max, uuid.NewString()).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), err
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("sliding limiter: unexpected reply %v", res)
	}
	remaining := max - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	return res[0] == 1, remaining, time.UnixMilli(res[2]), nil
}
