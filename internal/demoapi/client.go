package demoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CallPath is the demo call route under the service base URL
const CallPath = "/api/demo/call"

const maxBodyBytes = 1 << 20

// CallRequest is the JSON payload accepted by the demo call endpoint.
// An empty PhoneNumber is omitted so the server sees "{}".
type CallRequest struct {
	PhoneNumber string `json:"phone_number,omitempty"`
}

// CallResponse covers both the success and the error shapes the endpoint returns
type CallResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Response is a raw HTTP response from the demo endpoint.
// Any status code is a valid Response; only transport failures are errors.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode parses the response body as a CallResponse
func (r *Response) Decode() (*CallResponse, error) {
	var out CallResponse
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response body (status %d): %w", r.StatusCode, err)
	}
	return &out, nil
}

// Text returns the body as a trimmed string
func (r *Response) Text() string {
	return strings.TrimSpace(string(r.Body))
}

// Client talks to the demo call endpoint of a single service
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  "demo-api-check",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the absolute URL of the demo call route
func (c *Client) Endpoint() string {
	return c.baseURL + CallPath
}

// Probe issues a bodiless GET against the demo call route
func (c *Client) Probe(ctx context.Context, timeout time.Duration) (*Response, error) {
	return c.do(ctx, http.MethodGet, nil, timeout)
}

// Call POSTs req as JSON to the demo call route
func (c *Client) Call(ctx context.Context, req CallRequest, timeout time.Duration) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, payload, timeout)
}

func (c *Client) do(ctx context.Context, method string, payload []byte, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, c.Endpoint(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
