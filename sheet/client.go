package sheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "forecastboard/1.0"
	DefaultRetries   = 1

	// bytes of an unexpected body quoted in errors
	snippetLen = 120
	// exports larger than this are rejected
	maxBodyBytes = 32 << 20
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastboard_sheet_fetch_total",
			Help: "Spreadsheet tab fetches by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastboard_sheet_fetch_duration_seconds",
			Help:    "Spreadsheet tab fetch latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"schema"},
	)
)

// Loader returns the parsed contents of one spreadsheet tab.
type Loader interface {
	Load(ctx context.Context, src Source, schema Schema) (*Table, error)
}

// HTTPClient allows swapping the transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches tabs through the public CSV export endpoint.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	userAgent  string
	timeout    time.Duration
	retries    int
	backoff    time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL points the client at another export host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRetries sets how many times a failed transport or 5xx attempt is retried.
func WithRetries(retries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = max(retries, 0)
		c.backoff = backoff
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		retries:   DefaultRetries,
		backoff:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Load fetches and parses the tab. Transport failures, non 2xx statuses and html pages all
// surface as ErrSourceUnavailable.
func (c *Client) Load(ctx context.Context, src Source, schema Schema) (*Table, error) {
	if !src.Valid() {
		return nil, fmt.Errorf("incomplete source %q, %w", src.String(), ErrSourceUnavailable)
	}

	start := time.Now()
	defer func() {
		fetchDuration.WithLabelValues(schema.Name).Observe(time.Since(start).Seconds())
	}()

	body, err := c.fetch(ctx, src)
	if err != nil {
		fetchTotal.WithLabelValues(schema.Name, "unavailable").Inc()
		return nil, err
	}

	tbl, err := Parse(bytes.NewReader(body), schema)
	if err != nil {
		fetchTotal.WithLabelValues(schema.Name, "schema").Inc()
		return nil, fmt.Errorf("unable to parse %s, %w", src.String(), err)
	}
	tbl.Source = src
	fetchTotal.WithLabelValues(schema.Name, "ok").Inc()
	slog.Debug("loaded spreadsheet tab", "source", src.String(), "schema", schema.Name, "rows", tbl.Len())
	return tbl, nil
}

func (c *Client) fetch(ctx context.Context, src Source) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		body, retry, err := c.doRequest(ctx, src)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		slog.Warn("spreadsheet fetch failed, retrying",
			"source", src.String(),
			"attempt", attempt+1,
			"retries", c.retries,
			"error", err.Error(),
		)
	}
	return nil, lastErr
}

// doRequest performs a single attempt and reports whether a failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, src Source) ([]byte, bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL(c.baseURL), nil)
	if err != nil {
		return nil, false, fmt.Errorf("unable to create request, %w: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("unable to fetch %s, %w: %w", src.String(), ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("unable to read %s, %w: %w", src.String(), ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode >= 500, fmt.Errorf(
			"fetching %s returned status %d (body: %s), %w",
			src.String(), resp.StatusCode, snippet(body), ErrSourceUnavailable,
		)
	}

	// private or removed sheets answer with a sign-in page instead of CSV
	if isHTML(resp.Header.Get("Content-Type"), body) {
		return nil, false, fmt.Errorf(
			"%s returned an html page instead of csv (body: %s), %w",
			src.String(), snippet(body), ErrSourceUnavailable,
		)
	}
	return body, false, nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLen {
		s = s[:snippetLen] + "..."
	}
	return strconv.Quote(s)
}
