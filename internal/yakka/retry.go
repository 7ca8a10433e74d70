package yakka

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy allows 3 attempts with 1s, 2s, ... backoff capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 8 * time.Second}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Throttled waits on the limiter before every call to next.
type Throttled struct {
	next    Transport
	limiter *RateLimiter
}

func NewThrottled(next Transport, limiter *RateLimiter) *Throttled {
	return &Throttled{next: next, limiter: limiter}
}

func (t *Throttled) Get(ctx context.Context, rawURL string) (Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}
	resp, err := t.next.Get(ctx, rawURL)
	t.limiter.Mark()
	return resp, err
}

// Retrying retries transient failures of next; other errors return at once.
type Retrying struct {
	next   Transport
	policy RetryPolicy
	sleep  func(context.Context, time.Duration) error
	log    *slog.Logger
}

func NewRetrying(next Transport, policy RetryPolicy, log *slog.Logger) *Retrying {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retrying{next: next, policy: policy, sleep: sleepCtx, log: log}
}

func (r *Retrying) Get(ctx context.Context, rawURL string) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		resp, err := r.next.Get(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return Response{}, err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.Delay(attempt)
		r.log.Debug("yakka retry", "url", rawURL, "attempt", attempt+1, "delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return Response{}, err
		}
	}
	return Response{}, fmt.Errorf("yakka request failed after %d attempts: %w", r.policy.MaxAttempts, lastErr)
}
