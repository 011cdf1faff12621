package ratelimit

import (
	"time"

	"github.com/inkhouse/inkhouse/internal/storage"
)

func NewLimiter(redisClient *storage.RedisClient, algorithm string, limit int, window time.Duration) Limiter {
	switch algorithm {
	case "sliding_window":
		return NewSlidingWindow(redisClient, limit, window)
	case "fixed_window":
		return NewFixedWindow(redisClient, limit, window)
	default:
		return NewFixedWindow(redisClient, limit, window)
	}
}
