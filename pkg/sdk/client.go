package docdex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the underlying HTTP client. Useful for custom
// transports, proxies, or test doubles.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// Client is the docdex SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a docdex client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("docdex: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("docdex: base url must be http(s), got %q", baseURL)
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cfg.httpClient,
		logger:     cfg.logger,
	}, nil
}

// Chats returns the chat management service.
func (c *Client) Chats() *ChatService {
	return &ChatService{client: c}
}

// Messages returns the message service.
func (c *Client) Messages() *MessageService {
	return &MessageService{client: c}
}

// Documents returns the document inventory service.
func (c *Client) Documents() *DocumentService {
	return &DocumentService{client: c}
}

// Health checks the health of all server components. A degraded server
// returns the report together with ErrServiceUnavailable.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("docdex: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("docdex: GET /healthz: %w", err)
	}
	defer resp.Body.Close()

	// The degraded report arrives with a 503 but still carries the body.
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return HealthStatus{}, fmt.Errorf("docdex: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("docdex: %w", ErrServiceUnavailable)
	}
	return status, nil
}

// do performs one API round trip: JSON in, JSON out, error envelope on
// non-2xx. out may be nil for responses without a body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	start := time.Now()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("docdex: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("docdex: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start, err)
		return fmt.Errorf("docdex: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp)
		c.observe(method, path, resp.StatusCode, start, apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.observe(method, path, resp.StatusCode, start, err)
			return fmt.Errorf("docdex: decode response: %w", err)
		}
	}

	c.observe(method, path, resp.StatusCode, start, nil)
	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time, err error) {
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.Warn("request failed",
			"method", method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}
	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", status,
		"duration", time.Since(start),
	)
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		return apiErr
	}

	apiErr.Code = "unknown"
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
