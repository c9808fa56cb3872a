package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/stepgraph/internal/workflow"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// DefaultEndpoint is the planner URL used when none is configured.
const DefaultEndpoint = "http://127.0.0.1:8000/plan"

// maxBodyPreview bounds how much of an error body is kept in errors and logs.
const maxBodyPreview = 500

// HTTPClient implements Client by POSTing JSON to a planner endpoint.
type HTTPClient struct {
	endpoint   string
	http       *http.Client
	apiKey     string
	appendOnly bool
	logger     *zap.Logger
	requestID  atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) ClientOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithAppendOnly omits the existing steps from every request.
func WithAppendOnly(on bool) ClientOption {
	return func(c *HTTPClient) {
		c.appendOnly = on
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPClient creates a planner client for endpoint. An empty endpoint
// selects DefaultEndpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &HTTPClient{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the planner URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Plan POSTs req to the planner and decodes the answer.
func (c *HTTPClient) Plan(ctx context.Context, req Request) (*Response, error) {
	if c.appendOnly {
		req.ExistingSteps = nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("planner: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("planner: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	reqID := strconv.FormatInt(c.nextID(), 10)
	httpReq.Header.Set("X-Request-ID", reqID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log := c.logger.With(zap.String("request_id", reqID))
	log.Debug("planner request", zap.String("endpoint", c.endpoint), zap.Int("existing_steps", len(req.ExistingSteps)))

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	log.Debug("planner response", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: preview(respBody)}
	}

	return DecodeResponse(respBody)
}

// nextID returns a monotonically increasing id for the X-Request-ID header.
func (c *HTTPClient) nextID() int64 {
	return c.requestID.Add(1)
}

// DecodeResponse parses a planner body. A non-empty error field yields an
// *AppError; a body without a JSON object yields a *TransportError; a steps
// field that is missing or not an array yields ShapeOK false.
func DecodeResponse(body []byte) (*Response, error) {
	obj, err := ExtractJSON(body)
	if err != nil {
		return nil, &TransportError{Body: preview(body), Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, &TransportError{Body: preview(body), Err: fmt.Errorf("decode response: %w", err)}
	}

	if raw, ok := fields["error"]; ok {
		if code := scalarString(raw); code != "" && code != "false" {
			return nil, &AppError{Code: code, Details: scalarString(fields["details"])}
		}
	}

	steps, ok := workflow.DecodeSuggestions(fields["steps"])
	return &Response{Steps: steps, ShapeOK: ok}, nil
}

// scalarString renders a JSON value as a string: strings are unquoted,
// null and absent values are empty, anything else is kept as JSON text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return ""
	}
	return string(raw)
}

func preview(b []byte) string {
	if len(b) > maxBodyPreview {
		return string(b[:maxBodyPreview])
	}
	return string(b)
}
