package yakka

import (
	"context"
	"time"
)

// RateLimiter enforces a minimum interval between the end of one request and
// the start of the next. It keeps a single timestamp and is meant for one
// sequential caller; it is not safe for concurrent use.
type RateLimiter struct {
	interval      time.Duration
	lastRequestAt time.Time
	now           func() time.Time
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval, now: time.Now}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.interval <= 0 || r.lastRequestAt.IsZero() {
		return nil
	}
	elapsed := r.now().Sub(r.lastRequestAt)
	if elapsed >= r.interval {
		return nil
	}
	return sleepCtx(ctx, r.interval-elapsed)
}

// Mark records that a request just finished.
func (r *RateLimiter) Mark() {
	if r == nil {
		return
	}
	r.lastRequestAt = r.now()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
