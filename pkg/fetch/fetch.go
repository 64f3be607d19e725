package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"polygraph/pkg/logger"

	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies polygraph to remote endpoints. The Wikimedia
// APIs require a contactable user agent.
const DefaultUserAgent = "polygraph/1.0 (+https://github.com/polygraph)"

// TransportError reports a failed request against a remote data source.
// It is returned for non-retryable HTTP statuses and exhausted retries.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transport error for %s: status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Cache stores raw response bodies keyed by request hash. Implementations
// must tolerate concurrent readers but polygraph only ever uses a cache from
// one goroutine at a time.
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Response is the subset of an HTTP response the rest of the system sees.
type Response struct {
	Status    int
	Body      []byte
	FromCache bool
}

// Client performs GET requests with retries, a shared token-bucket rate
// limit, and an optional response cache. All remote clients (SPARQL,
// Wikipedia, official records) share one Client so they also share its
// rate limit.
type Client struct {
	http       *http.Client
	cache      Cache
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	userAgent  string
}

// NewClientParams defines the configuration for creating a fetch Client.
//
// RequestsPerSecond bounds outbound request rate; Burst defaults to the
// ceiling of the rate. Cache may be nil to disable caching.
type NewClientParams struct {
	Cache             Cache
	RequestsPerSecond float64
	MaxRetries        int
	Backoff           time.Duration
	Timeout           time.Duration
	UserAgent         string
}

// NewClient creates a fetch Client with the provided parameters, applying
// defaults for any zero values.
func NewClient(params NewClientParams) *Client {
	rps := params.RequestsPerSecond
	if rps <= 0 {
		rps = 5.0
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		cache:      params.Cache,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries: maxRetries,
		backoff:    backoff,
		userAgent:  userAgent,
	}
}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// CacheKey builds a stable hash for a request so identical requests hit the
// same cache entry regardless of parameter ordering.
func CacheKey(method string, rawURL string, params url.Values) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(rawURL)
	b.WriteByte('\n')

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
			b.WriteByte('&')
		}
	}

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get performs a GET request with retries and caching. Retryable statuses
// (429 and common 5xx) are retried with exponential backoff; anything else
// non-2xx returns a TransportError immediately.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	key := CacheKey(http.MethodGet, rawURL, params)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return &Response{Status: http.StatusOK, Body: []byte(cached), FromCache: true}, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, rawURL, params, headers)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.Status == http.StatusOK || resp.Status == http.StatusNotModified {
			if c.cache != nil {
				if err := c.cache.Set(key, string(resp.Body)); err != nil {
					logger.Warn("[Fetch] Failed to write cache entry", "url", rawURL, "err", err)
				}
			}
			return resp, nil
		}

		if retryableStatus[resp.Status] {
			sleep := c.backoff * (1 << attempt)
			logger.Warn("[Fetch] Retryable status, backing off", "url", rawURL, "status", resp.Status, "sleep", sleep)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleep):
			}
			lastErr = &TransportError{URL: rawURL, Status: resp.Status}
			continue
		}

		return nil, &TransportError{URL: rawURL, Status: resp.Status}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no attempts made")
	}
	return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("exceeded %d retries: %w", c.maxRetries, lastErr)}
}

// GetJSON performs a GET request and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	resp, err := c.Get(ctx, rawURL, params, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &TransportError{URL: rawURL, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}
