package ol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"openlibrary-explorer/internal/metrics"
	"openlibrary-explorer/internal/models"
)

// DefaultBaseURL is the public Open Library host.
const DefaultBaseURL = "https://openlibrary.org"

// SearchFields is the fixed field list requested for every hit.
const SearchFields = "title,author_name,person"

// Open Library HTTP timeouts so a hung request doesn't block the dashboard forever.
const (
	defaultConnectTimeout  = 10 * time.Second
	defaultResponseTimeout = 25 * time.Second // time to first response header
	defaultTotalTimeout    = 30 * time.Second // connect + headers + body
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Status, e.URL)
}

// IsRateLimited reports whether err is an HTTP 429 from Open Library.
func IsRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests
}

// SearchURL builds a Search API URL for a query: the quoted phrase under the facet's parameter,
// the fixed field list and the result-count limit.
func SearchURL(base string, query models.Query) string {
	params := url.Values{
		query.Facet.Param(): {query.Phrase()},
		"fields":            {SearchFields},
		"limit":             {strconv.Itoa(query.Limit)},
	}
	return strings.TrimRight(base, "/") + "/search.json?" + params.Encode()
}

// FetchJSONWithClient retrieves the raw JSON for an Open Library URL using the given HTTP client.
// Sets the User-Agent so the site can identify the tool.
func FetchJSONWithClient(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	UserAgent         string
	ProxyURL          string
	ConnectTimeout    time.Duration
	ResponseTimeout   time.Duration
	TotalTimeout      time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPClient returns an http.Client for Open Library requests. Transport uses explicit
// connect and response-header timeouts; ProxyURL, when set, routes requests through that proxy.
func NewHTTPClient(opts Options) (*http.Client, error) {
	connect := opts.ConnectTimeout
	if connect <= 0 {
		connect = defaultConnectTimeout
	}
	header := opts.ResponseTimeout
	if header <= 0 {
		header = defaultResponseTimeout
	}
	total := opts.TotalTimeout
	if total <= 0 {
		total = defaultTotalTimeout
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
		ResponseHeaderTimeout: header,
	}
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: transport, Timeout: total}, nil
}

// Client issues search requests against Open Library.
type Client struct {
	http      *http.Client
	base      string
	userAgent string
	limiter   *rate.Limiter
}

// NewClient builds a Client with its own HTTP client and a token-bucket throttle.
func NewClient(opts Options) (*Client, error) {
	httpClient, err := NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return NewClientWithHTTP(httpClient, opts), nil
}

// NewClientWithHTTP builds a Client around an existing HTTP client (tests, custom transports).
func NewClientWithHTTP(httpClient *http.Client, opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		http:      httpClient,
		base:      base,
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// BaseURL returns the Open Library host the client talks to.
func (c *Client) BaseURL() string {
	return c.base
}

// Search runs one query and returns the raw response body. Latency and 429s are recorded.
func (c *Client) Search(ctx context.Context, query models.Query) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := FetchJSONWithClient(ctx, c.http, SearchURL(c.base, query), c.userAgent)
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	if IsRateLimited(err) {
		metrics.RateLimitHitsTotal.Inc()
	}
	return body, err
}

// Robots fetches and parses robots.txt for the client's host.
func (c *Client) Robots(ctx context.Context) (*RobotsRules, error) {
	body, err := FetchRobots(ctx, c.http, c.base)
	if err != nil {
		return nil, err
	}
	agent := c.userAgent
	if agent == "" {
		agent = DefaultUserAgent
	}
	return ParseRobots(body, agent), nil
}
