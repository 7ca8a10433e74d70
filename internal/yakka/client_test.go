package yakka

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/text/encoding/japanese"

	"excel2web/internal"
	"excel2web/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

func TestSearchURL(t *testing.T) {
	c := NewClientWithTransport("https://example.test/", nil, nil)
	assert.Equal(t, "https://example.test/index.php?s=%E3%83%AD%E3%82%AD%E3%82%BD%E3%83%8B%E3%83%B3&stype=1", c.SearchURL("ロキソニン"))
}

func TestSearchPriceWithRetry(t *testing.T) {
	attempt := 0

	cfg, _ := config.Load()
	cfg.YakkaBaseURL = "https://example.test"
	cfg.YakkaMinIntervalMs = 0
	cfg.YakkaUserAgent = "excel2web-test"

	client := NewClient(cfg, nil)
	retrying := client.transport.(*Retrying)
	retrying.sleep = func(context.Context, time.Duration) error { return nil }
	throttled := retrying.next.(*Throttled)
	throttled.next.(*HTTPTransport).client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/index.php" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			assert.Equal(t, "ユーロジン", r.URL.Query().Get("s"))
			assert.Equal(t, "1", r.URL.Query().Get("stype"))
			assert.Equal(t, "excel2web-test", r.Header.Get("User-Agent"))
			attempt++
			if attempt < 3 {
				return htmlResponse(r, http.StatusBadGateway, "bad gateway"), nil
			}
			return htmlResponse(r, http.StatusOK, `<span class="yakka">6.1円</span>`), nil
		}),
	}

	res, err := client.SearchPrice(context.Background(), "ユーロジン")
	require.NoError(t, err)
	assert.Equal(t, 3, attempt)
	assert.Equal(t, "6.1円", res.PriceText)
	assert.Equal(t, internal.SourceRemote, res.Source)
	assert.Equal(t, "ユーロジン", res.Query)
	assert.Contains(t, res.OriginURL, "https://example.test/index.php?")
}

func TestSearchPriceNotFound(t *testing.T) {
	ft := &fakeTransport{fn: func(int) (Response, error) {
		return Response{URL: "https://example.test/index.php?s=x&stype=1", Body: "<p>該当なし</p>"}, nil
	}}
	client := NewClientWithTransport("https://example.test", ft, nil)

	res, err := client.SearchPrice(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, internal.PriceNotFound, res.PriceText)
	assert.Equal(t, internal.SourceNotFound, res.Source)
}

func TestSearchPriceTerminalError(t *testing.T) {
	ft := &fakeTransport{fn: func(int) (Response, error) {
		return Response{}, &StatusError{StatusCode: 500}
	}}
	r, _ := newTestRetrying(ft, DefaultRetryPolicy())
	client := NewClientWithTransport("https://example.test", r, nil)

	_, err := client.SearchPrice(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 3, ft.calls)
}

func TestHTTPTransportDecodesDeclaredCharset(t *testing.T) {
	page, err := japanese.ShiftJIS.NewEncoder().String(`<html><body><span class="price">薬価 7.50円</span></body></html>`)
	require.NoError(t, err)

	tr := NewHTTPTransport(time.Second, "")
	tr.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			resp := htmlResponse(r, http.StatusOK, page)
			resp.Header.Set("Content-Type", "text/html; charset=Shift_JIS")
			return resp, nil
		}),
	}
	client := NewClientWithTransport("https://example.test", tr, nil)

	res, err := client.SearchPrice(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "7.50円", res.PriceText)
	assert.Equal(t, internal.SourceRemote, res.Source)
}

func TestSearchPriceRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	ft := &fakeTransport{fn: func(int) (Response, error) {
		return Response{URL: "https://example.test/index.php?s=x&stype=1", Body: `<b class="price">12円</b>`}, nil
	}}
	client := NewClientWithTransport("https://example.test", ft, nil)

	_, err := client.SearchPrice(context.Background(), "x")
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "yakka.search", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("yakka.source", "remote"))
}
