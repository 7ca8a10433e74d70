package yakka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html/charset"
)

type Response struct {
	URL  string
	Body string
}

// Transport performs a single GET with no retry and no throttling.
type Transport interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("yakka status %d for %s", e.StatusCode, e.URL)
}

type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: userAgent,
	}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, err
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Response{}, &StatusError{StatusCode: resp.StatusCode, URL: finalURL}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return Response{}, fmt.Errorf("decode yakka body: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Response{}, err
	}
	return Response{URL: finalURL, Body: string(body)}, nil
}

// IsTransient reports whether err is worth another attempt: timeouts,
// connection failures and error statuses. Malformed URLs, TLS failures and
// redirect loops are permanent.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Op == "parse" {
			return false
		}
		if urlErr.Timeout() {
			return true
		}
		err = urlErr.Err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
