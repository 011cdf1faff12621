package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/inkhouse/inkhouse/internal/storage"
	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter spreads the quota over a rolling window using a
// Redis sorted set of request timestamps. Smoother than fixed windows
// at the cost of one sorted-set entry per request.
type SlidingWindowLimiter struct {
	redis  *storage.RedisClient
	limit  int
	window time.Duration
}

func NewSlidingWindow(redisClient *storage.RedisClient, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

func (s *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	redisKey := fmt.Sprintf("ratelimit:sliding:%s", key)
	now := time.Now()
	windowStart := now.Add(-s.window)

	pipe := s.redis.Pipeline()

	// Drop entries that have slid out of the window
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	count := countCmd.Val()

	result := &Result{
		Limit: s.limit,
		Reset: s.resetTime(ctx, redisKey, now),
	}

	if count >= int64(s.limit) {
		result.Allowed = false
		result.Remaining = 0
		return result, nil
	}

	s.redis.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	s.redis.Expire(ctx, redisKey, s.window)

	result.Allowed = true
	result.Remaining = s.limit - int(count) - 1
	if result.Remaining < 0 {
		result.Remaining = 0
	}

	return result, nil
}

// The window "resets" when the oldest counted request slides out
func (s *SlidingWindowLimiter) resetTime(ctx context.Context, redisKey string, now time.Time) time.Time {
	oldest, err := s.redis.ZRange(ctx, redisKey, 0, 0)
	if err != nil || len(oldest) == 0 {
		return now.Add(s.window)
	}

	var oldestNano int64
	fmt.Sscanf(oldest[0], "%d", &oldestNano)

	return time.Unix(0, oldestNano).Add(s.window)
}

func (s *SlidingWindowLimiter) Limit() int {
	return s.limit
}

func (s *SlidingWindowLimiter) Window() time.Duration {
	return s.window
}
