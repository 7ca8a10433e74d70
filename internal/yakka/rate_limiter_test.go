package yakka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterFirstRequestImmediate(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterWaitsRemainingInterval(t *testing.T) {
	limiter := NewRateLimiter(100 * time.Millisecond)
	limiter.Mark()

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRateLimiterNoWaitAfterInterval(t *testing.T) {
	limiter := NewRateLimiter(time.Second)
	base := time.Now()
	limiter.now = func() time.Time { return base }
	limiter.Mark()
	limiter.now = func() time.Time { return base.Add(2 * time.Second) }

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.Mark()
	require.NoError(t, limiter.Wait(context.Background()))

	var nilLimiter *RateLimiter
	nilLimiter.Mark()
	require.NoError(t, nilLimiter.Wait(context.Background()))
}

func TestRateLimiterRespectsContext(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	limiter.Mark()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}
