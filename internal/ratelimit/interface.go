package ratelimit

import (
	"context"
	"time"
)

// Outcome of a single quota check. Remaining reflects the state
// after the request was counted; Reset is when the quota refills.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)

	Limit() int

	Window() time.Duration
}

// CounterStore is the slice of the Redis client the fixed-window
// limiter needs. The increment must be atomic per key.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
