package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type FixedWindowLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewFixedWindow(store CounterStore, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow counts the request against the key's current window and reports
// whether it is within quota. The counter lives in the backing store
// under a key scoped to the window index, so concurrent requests for
// the same key cannot lose increments and the window resets itself by
// TTL. Denied requests still increment; the count past the limit is
// irrelevant because the key expires with the window.
func (f *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	windowSecs := int64(f.window.Seconds())
	currentWindow := f.now().Unix() / windowSecs
	storeKey := fmt.Sprintf("ratelimit:fixed:%s:%d", key, currentWindow)

	count, err := f.store.Incr(ctx, storeKey)
	if err != nil {
		return nil, err
	}

	if count == 1 {
		f.store.Expire(ctx, storeKey, f.window)
	}

	remaining := f.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(f.limit),
		Limit:     f.limit,
		Remaining: remaining,
		Reset:     time.Unix((currentWindow+1)*windowSecs, 0),
	}, nil
}

func (f *FixedWindowLimiter) Limit() int {
	return f.limit
}

func (f *FixedWindowLimiter) Window() time.Duration {
	return f.window
}
