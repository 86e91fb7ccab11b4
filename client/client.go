// Package client is a Go SDK for toggled. It covers the toggle and field
// endpoints, the audit log and the health endpoints of a running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to one toggled server. It is safe for concurrent use.
type Client struct {
	baseURL       string
	apiKey        string
	sessionCookie *http.Cookie
	httpClient    *http.Client

	Audit *AuditService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token. JWTs are passed the same way.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithSessionCookie authenticates through the session guard.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) { c.sessionCookie = &http.Cookie{Name: name, Value: value} }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3030".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, apply := range opts {
		apply(c)
	}
	c.Audit = &AuditService{c: c}
	return c
}

// Health calls the liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.send(ctx, call{method: http.MethodGet, path: "/api/v1/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls the readiness endpoint. When the server is not ready the
// decoded checks are returned together with the *APIError for the 503.
func (c *Client) Ready(ctx context.Context) (*ReadyResponse, error) {
	var out ReadyResponse
	err := c.send(ctx, call{method: http.MethodGet, path: "/api/v1/ready"}, &out)
	if err != nil && out.Status == "" {
		return nil, err
	}
	return &out, err
}

// call describes one API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (cl call) target(base string) string {
	if len(cl.query) == 0 {
		return base + cl.path
	}
	return base + cl.path + "?" + cl.query.Encode()
}

// send performs cl and decodes a successful JSON answer into out.
func (c *Client) send(ctx context.Context, cl call, out any) error {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	var payload io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", cl.path, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.target(c.baseURL), payload)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", cl.method, cl.path, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return req, nil
}

// authorize attaches whichever credentials the client was given. The server
// tries its allowed guards in order, so sending both is harmless.
func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.sessionCookie != nil {
		req.AddCookie(c.sessionCookie)
	}
}

// decodeResponse turns error statuses into *APIError. A 503 body is still
// decoded into out since readiness reports its checks there.
func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	apiErr := parseAPIError(resp.StatusCode, raw)
	apiErr.RetryAfter = resp.Header.Get("Retry-After")

	if out != nil && resp.StatusCode == http.StatusServiceUnavailable {
		_ = json.Unmarshal(raw, out)
	}

	return apiErr
}
