package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

const (
	// DefaultBaseURL is the default Flowise instance.
	DefaultBaseURL = "http://localhost:3000"

	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 60 * time.Second

	apiPrefix = "/api/v1/"
)

// ErrEmptyID is returned when a required resource ID is blank.
var ErrEmptyID = errors.New("resource id must not be empty")

// Client talks to the Flowise REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      ferrors.RetryConfig

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	metricsEnabled bool
	spans          observability.SpanManager
	tracingEnabled bool
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets the Flowise instance URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithAPIKey sets the bearer token. An empty key sends no Authorization header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets the retry policy for GET requests.
// Other methods are never retried.
func WithRetry(cfg ferrors.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithLogger sets the logger for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry request metrics.
func WithMetrics(enabled bool) Option {
	return func(c *Client) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables a client span per request.
func WithTracing(enabled bool) Option {
	return func(c *Client) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retry:   ferrors.DefaultRetry,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call.
type request struct {
	operation string
	method    string
	endpoint  string
	query     url.Values
	body      any
}

// Do performs a raw API call against endpoint, relative to /api/v1/.
// GET requests are retried on transient failures.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body any) (*Response, error) {
	return c.do(ctx, request{
		operation: "raw",
		method:    method,
		endpoint:  endpoint,
		query:     query,
		body:      body,
	})
}

func (c *Client) do(ctx context.Context, req request) (resp *Response, err error) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := c.spans.StartRequestSpan(ctx, req.operation, req.method, req.endpoint)
	defer func() {
		c.spans.EndSpanWithError(span, err)
	}()

	cfg := ferrors.NoRetry
	if req.method == http.MethodGet {
		cfg = c.retry
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		if c.logger != nil {
			c.logger.Debug("retrying flowise request",
				slog.String("request_id", requestID),
				slog.String("endpoint", req.endpoint),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
		}
	}

	result := ferrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (*Response, error) {
		return c.send(ctx, requestID, req)
	})

	duration := time.Since(start)
	status := 0
	if result.Value != nil {
		status = result.Value.StatusCode
	} else {
		var statusErr *ferrors.StatusError
		if errors.As(result.Err, &statusErr) {
			status = statusErr.StatusCode
		}
	}
	c.metrics.RecordAPIRequest(ctx, req.operation, status, duration, result.Err)

	if result.Err != nil {
		observability.LogRequestError(c.logger, requestID, req.method, req.endpoint, result.Attempts, result.Err)
		return nil, fmt.Errorf("%s: %w", req.operation, result.Err)
	}
	observability.LogRequest(c.logger, requestID, req.method, req.endpoint, status, float64(duration.Milliseconds()))
	return result.Value, nil
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, requestID string, req request) (*Response, error) {
	target := c.baseURL + apiPrefix + req.endpoint
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(req.endpoint, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(req.endpoint, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &ferrors.StatusError{
			StatusCode: httpResp.StatusCode,
			Body:       string(data),
			Method:     req.method,
			Endpoint:   req.endpoint,
		}
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// transportError types a failed round trip as a timeout or connect error.
// Cancellation by the caller is returned as is.
func (c *Client) transportError(endpoint string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ferrors.TimeoutError{Endpoint: endpoint, Err: err}
	}
	return &ferrors.ConnectError{BaseURL: c.baseURL, Err: err}
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, query url.Values, out any) error {
	resp, err := c.do(ctx, request{operation: operation, method: http.MethodGet, endpoint: endpoint, query: query})
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// pathID escapes a resource ID for use as a path segment.
func pathID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyID, field)
	}
	return url.PathEscape(id), nil
}
