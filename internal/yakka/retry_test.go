package yakka

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	calls int
	fn    func(call int) (Response, error)
}

func (f *fakeTransport) Get(_ context.Context, _ string) (Response, error) {
	f.calls++
	return f.fn(f.calls)
}

type countingTransport struct {
	calls int
	next  Transport
}

func (c *countingTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	c.calls++
	return c.next.Get(ctx, rawURL)
}

func newTestRetrying(next Transport, policy RetryPolicy) (*Retrying, *[]time.Duration) {
	r := NewRetrying(next, policy, nil)
	slept := []time.Duration{}
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRetryPolicyDelay(t *testing.T) {
	p := DefaultRetryPolicy()
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, p.Delay(i+1), "attempt %d", i+1)
	}
}

func TestRetryingSucceedsOnThirdAttempt(t *testing.T) {
	ft := &fakeTransport{fn: func(call int) (Response, error) {
		if call < 3 {
			return Response{}, &StatusError{StatusCode: 503, URL: "u"}
		}
		return Response{URL: "u", Body: "ok"}, nil
	}}
	r, slept := newTestRetrying(ft, DefaultRetryPolicy())

	resp, err := r.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Body)
	assert.Equal(t, 3, ft.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRetryingExhausted(t *testing.T) {
	ft := &fakeTransport{fn: func(int) (Response, error) {
		return Response{}, context.DeadlineExceeded
	}}
	r, slept := newTestRetrying(ft, DefaultRetryPolicy())

	_, err := r.Get(context.Background(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, ft.calls)
	assert.Len(t, *slept, 2)
}

func TestRetryingDoesNotRetryPermanentErrors(t *testing.T) {
	boom := errors.New("malformed")
	ft := &fakeTransport{fn: func(int) (Response, error) { return Response{}, boom }}
	r, slept := newTestRetrying(ft, DefaultRetryPolicy())

	_, err := r.Get(context.Background(), "u")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ft.calls)
	assert.Empty(t, *slept)
}

func TestRetryingStopsOnCancelledSleep(t *testing.T) {
	ft := &fakeTransport{fn: func(int) (Response, error) {
		return Response{}, &StatusError{StatusCode: 500}
	}}
	r := NewRetrying(ft, DefaultRetryPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Get(ctx, "u")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ft.calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&StatusError{StatusCode: 404}))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 502})))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(errors.New("parse")))
	assert.False(t, IsTransient(nil))

	_, parseErr := url.Parse("http://[::1")
	require.Error(t, parseErr)
	assert.False(t, IsTransient(parseErr))
	assert.False(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: x509.UnknownAuthorityError{}}))
	assert.False(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: errors.New("stopped after 10 redirects")}))

	assert.True(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}))
	assert.True(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: &net.DNSError{Err: "no such host", Name: "example.test"}}))
	assert.True(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: io.ErrUnexpectedEOF}))
	assert.True(t, IsTransient(&url.Error{Op: "Get", URL: "https://example.test", Err: context.DeadlineExceeded}))
}

func TestRetryingMalformedBaseURLIsNotRetried(t *testing.T) {
	counting := &countingTransport{next: NewHTTPTransport(time.Second, "")}
	r, slept := newTestRetrying(counting, DefaultRetryPolicy())
	client := NewClientWithTransport("http://[::1", r, nil)

	_, err := client.SearchPrice(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 1, counting.calls)
	assert.Empty(t, *slept)
}

func TestThrottledMarksEveryAttempt(t *testing.T) {
	ft := &fakeTransport{fn: func(int) (Response, error) { return Response{}, &StatusError{StatusCode: 500} }}
	limiter := NewRateLimiter(time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	th := NewThrottled(ft, limiter)
	_, err := th.Get(context.Background(), "u")
	require.Error(t, err)
	assert.Equal(t, now, limiter.lastRequestAt)
}
