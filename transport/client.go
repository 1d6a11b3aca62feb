package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 2 * 1024 * 1024
	requestIDHeader  = "X-Request-ID"
)

// Client issues JSON requests against the console authority.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The configured timeout is
// not applied to a supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// WithBearer attaches an Authorization: Bearer header. An empty token is ignored.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHeader sets an arbitrary request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// NewClient creates a [Client] for baseURL. A non-positive timeout selects the default.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, &Error{Op: "create client", Err: errors.New("authority base url is empty")}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, &Error{Op: "parse authority url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Op: "validate authority url", Err: fmt.Errorf("invalid authority url: %s", trimmed)}
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized authority URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DoJSON sends requestBody as JSON and decodes a 2xx response into
// responseBody. Either body may be nil. Non-2xx responses and transport
// failures are returned as [*Error].
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	path string,
	requestBody interface{},
	responseBody interface{},
	opts ...RequestOption,
) error {
	if c == nil || c.httpClient == nil {
		return &Error{Op: "do json request", Err: errors.New("authority client is not initialized")}
	}

	var payload []byte
	if requestBody != nil {
		raw, err := json.Marshal(requestBody)
		if err != nil {
			return &Error{Op: "marshal request body", Err: err}
		}
		payload = raw
	}

	statusCode, responseBytes, err := c.do(ctx, method, path, payload, opts)
	if err != nil {
		return err
	}
	if responseBody == nil || len(bytes.TrimSpace(responseBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &Error{Op: "decode response", StatusCode: statusCode, Err: err}
	}
	return nil
}

// Do sends a raw request and returns the status and body of a 2xx response.
func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body []byte,
	opts ...RequestOption,
) (int, []byte, error) {
	if c == nil || c.httpClient == nil {
		return 0, nil, &Error{Op: "do request", Err: errors.New("authority client is not initialized")}
	}
	return c.do(ctx, method, path, body, opts)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, opts []RequestOption) (int, []byte, error) {
	if strings.TrimSpace(method) == "" {
		method = http.MethodGet
	}
	op := method + " " + ensureLeadingSlash(path)

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), bodyReader)
	if err != nil {
		return 0, nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("authority request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return 0, nil, &Error{Op: op, Unreachable: true, Err: err}
	}
	defer resp.Body.Close()

	responseBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return resp.StatusCode, nil, &Error{Op: op, StatusCode: resp.StatusCode, Unreachable: true, Err: readErr}
	}

	c.logger.Debug("authority request",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, responseBytes, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(responseBytes),
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return resp.StatusCode, responseBytes, nil
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
