package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/benvon/smart-todo-client/internal/logger"
)

const (
	tracerName = "github.com/benvon/smart-todo-client/internal/apiclient"

	// maxErrorBodySize bounds how much of a failed response is read
	maxErrorBodySize = 1 << 20
)

// TokenSource supplies the bearer token for authenticated requests
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Options describes one request
type Options struct {
	Method  string
	Headers map[string]string
	Body    any
}

// Client talks to the todo API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
	tracer     trace.Tracer
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets an overall request timeout. Zero leaves the HTTP client default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for failed requests
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// New creates a client for baseURL. tokens may be nil for a client that only
// registers and logs in.
func New(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends an authenticated request and decodes the JSON response into
// out (which may be nil). The bearer token is attached when one is stored.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, endpoint, opts, out, true)
}

// RequestNoAuth sends a request without credentials. Only registration and
// login use it.
func (c *Client) RequestNoAuth(ctx context.Context, endpoint string, opts Options, out any) error {
	return c.do(ctx, endpoint, opts, out, false)
}

func (c *Client) do(ctx context.Context, endpoint string, opts Options, out any, withAuth bool) (err error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "apiclient "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("todo.api.endpoint", logger.SanitizePath(endpoint)),
			attribute.Bool("todo.api.authenticated", withAuth),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("api_request_failed",
				zap.String("method", method),
				zap.String("endpoint", logger.SanitizePath(endpoint)),
				zap.Int("status_code", StatusCode(err)),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, method, endpoint, opts, withAuth)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return newAPIError(endpoint, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, opts Options, withAuth bool) (*http.Request, error) {
	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if withAuth && c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}
