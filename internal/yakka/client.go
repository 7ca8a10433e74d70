// Package yakka looks up drug prices on yakka-search.com.
//
// The page layout is not a stable contract, so extraction is best-effort:
// a page without a recognizable price yields "Not Found" rather than an error.
// Network failures are retried and then returned to the caller.
package yakka

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"excel2web/internal"
	"excel2web/internal/config"
)

type Client struct {
	baseURL   string
	transport Transport
	extractor *Extractor
}

// NewClient wires HTTP -> rate limit -> retry from config. The returned
// client holds the rate limiter state and must be used by one goroutine.
func NewClient(cfg config.Config, log *slog.Logger) *Client {
	httpTransport := NewHTTPTransport(time.Duration(cfg.YakkaTimeoutMs)*time.Millisecond, cfg.YakkaUserAgent)
	limiter := NewRateLimiter(time.Duration(cfg.YakkaMinIntervalMs) * time.Millisecond)

	policy := DefaultRetryPolicy()
	if cfg.YakkaMaxAttempts > 0 {
		policy.MaxAttempts = cfg.YakkaMaxAttempts
	}

	transport := NewRetrying(NewThrottled(httpTransport, limiter), policy, log)
	return NewClientWithTransport(cfg.YakkaBaseURL, transport, NewExtractor(ParseSuffixes(cfg.YakkaPriceSuffixes)))
}

func NewClientWithTransport(baseURL string, transport Transport, extractor *Extractor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://yakka-search.com"
	}
	if extractor == nil {
		extractor = defaultExtractor
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		extractor: extractor,
	}
}

// SearchURL is the search form target: GET /index.php?s=<name>&stype=1.
func (c *Client) SearchURL(drugName string) string {
	q := url.Values{}
	q.Set("s", drugName)
	q.Set("stype", "1")
	return c.baseURL + "/index.php?" + q.Encode()
}

func (c *Client) SearchPrice(ctx context.Context, drugName string) (internal.PriceResult, error) {
	ctx, span := otel.Tracer("excel2web/yakka").Start(ctx, "yakka.search")
	defer span.End()
	span.SetAttributes(attribute.String("yakka.query", drugName))

	resp, err := c.transport.Get(ctx, c.SearchURL(drugName))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return internal.PriceResult{}, err
	}

	result := internal.PriceResult{Query: drugName, OriginURL: resp.URL}
	price, ok, err := c.extractor.Extract(resp.Body)
	if err != nil {
		return internal.PriceResult{}, err
	}
	if !ok {
		result.PriceText = internal.PriceNotFound
		result.Source = internal.SourceNotFound
		span.SetAttributes(attribute.String("yakka.source", string(result.Source)))
		return result, nil
	}
	result.PriceText = price
	result.Source = internal.SourceRemote
	span.SetAttributes(attribute.String("yakka.source", string(result.Source)))
	return result, nil
}
