// Package source acquires trade history from the external market API:
// a paged HTTP client, the cutoff-bounded acquisition loop, and a WebSocket
// live-trade feed.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"item-price-lab/internal/domain"
)

// Default client configuration.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 100
)

// HistoryClient fetches trade-history pages over HTTP. Pages are returned
// newest-first by the API; page indexes start at 0.
type HistoryClient struct {
	baseURL   string
	region    string
	pageSize  int
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// ClientOption configures HistoryClient.
type ClientOption func(*HistoryClient)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HistoryClient) { c.client = client }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HistoryClient) { c.client.Timeout = d }
}

// WithPageSize sets the number of records requested per page.
func WithPageSize(n int) ClientOption {
	return func(c *HistoryClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the cap.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HistoryClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *HistoryClient) { c.userAgent = ua }
}

// NewHistoryClient creates a client for one region of the market API.
func NewHistoryClient(baseURL, region string, opts ...ClientOption) *HistoryClient {
	c := &HistoryClient{
		baseURL:  baseURL,
		region:   region,
		pageSize: DefaultPageSize,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// historyEnvelope is the documented response shape. Some deployments return
// the bare array instead; FetchPage accepts both. Prices stays raw so an
// explicit null (an exhausted source) is distinguishable from a missing
// field (not an envelope at all).
type historyEnvelope struct {
	Prices json.RawMessage `json:"prices"`
}

// FetchPage retrieves one history page for an item. Zero records signal an
// exhausted source. TransportError and MalformedPayloadError are the only
// failure kinds.
func (c *HistoryClient) FetchPage(ctx context.Context, itemKey string, page int) ([]domain.RawTrade, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/items/%s/history?region=%s&page=%d&limit=%d",
		c.baseURL, url.PathEscape(itemKey), url.QueryEscape(c.region), page, c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{URL: u, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}

	return decodePage(u, body)
}

// decodePage accepts either {"prices": [...]} or a bare array of trades.
// {"prices": null} counts as an empty page.
func decodePage(u string, body []byte) ([]domain.RawTrade, error) {
	var envelope historyEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Prices != nil {
		if string(envelope.Prices) == "null" {
			return nil, nil
		}
		var prices []domain.RawTrade
		if err := json.Unmarshal(envelope.Prices, &prices); err == nil {
			return prices, nil
		}
	}

	var bare []domain.RawTrade
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	return nil, &MalformedPayloadError{
		URL: u,
		Err: fmt.Errorf("body is neither a prices envelope nor a trade array"),
	}
}
