package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// movingWindowScript prunes expired hits and records a new one only when the
// window has room. Scores are unix milliseconds.
//
// KEYS[1] window key
// ARGV[1] now, ARGV[2] window length, ARGV[3] limit, ARGV[4] member
var movingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) >= limit then
  return 0
end

redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[2])
return 1
`)

// RedisWindow is a MovingWindow whose hits live in a Redis sorted set, so
// several processes sharing one token share one budget.
type RedisWindow struct {
	rdb    redis.UniversalClient
	key    string
	limit  int
	window time.Duration
	now    func() time.Time
}

// RedisOption configures a RedisWindow.
type RedisOption func(*RedisWindow)

// WithRedisKey sets the sorted set key.
func WithRedisKey(key string) RedisOption {
	return func(w *RedisWindow) {
		w.key = strings.Trim(key, ":")
	}
}

// WithRedisClock replaces time.Now.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(w *RedisWindow) {
		w.now = now
	}
}

// NewRedisWindow creates a shared window on rdb.
func NewRedisWindow(rdb redis.UniversalClient, limit int, window time.Duration, opts ...RedisOption) *RedisWindow {
	w := &RedisWindow{
		rdb:    rdb,
		key:    constants.DefaultRedisKey,
		limit:  limit,
		window: window,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Admit implements Admitter.
func (w *RedisWindow) Admit(ctx context.Context) (bool, error) {
	now := w.now().UnixMilli()

	res, err := movingWindowScript.Run(ctx, w.rdb, []string{w.key},
		now, w.window.Milliseconds(), w.limit, uuid.NewString()).Int()
	if err != nil {
		return false, fmt.Errorf("evaluating moving window %s: %w", w.key, err)
	}

	return res == 1, nil
}

// Stats reports usage of the shared window.
func (w *RedisWindow) Stats(ctx context.Context) (WindowStats, error) {
	now := w.now()
	cutoff := now.Add(-w.window).UnixMilli()

	oldest, err := w.rdb.ZRangeByScoreWithScores(ctx, w.key, &redis.ZRangeBy{
		Min:   fmt.Sprintf("(%d", cutoff),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return WindowStats{}, fmt.Errorf("reading moving window %s: %w", w.key, err)
	}

	used, err := w.rdb.ZCount(ctx, w.key, fmt.Sprintf("(%d", cutoff), "+inf").Result()
	if err != nil {
		return WindowStats{}, fmt.Errorf("counting moving window %s: %w", w.key, err)
	}

	stats := WindowStats{
		Limit:     w.limit,
		Used:      int(used),
		Remaining: max(w.limit-int(used), 0),
		ResetAt:   now,
	}

	if len(oldest) > 0 {
		stats.ResetAt = time.UnixMilli(int64(oldest[0].Score)).Add(w.window)
	}

	return stats, nil
}
