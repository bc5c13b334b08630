package client

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Per-operation timeouts. Login is generous because the sidecar exchanges
// tokens with the upstream brokerage on that path.
const (
	HealthTimeout     = 2 * time.Second
	AuthStatusTimeout = 5 * time.Second
	LoginTimeout      = 30 * time.Second
	LogoutTimeout     = 5 * time.Second
)

// Client speaks the sidecar's HTTP API. It is safe for concurrent use; the
// supervisor additionally serializes calls behind its own lock.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string       // sidecar base address, e.g. http://localhost:8080
	Logger  *slog.Logger // optional logger for client operations
}

// DefaultConfig returns the client configuration for a locally spawned
// sidecar on its fixed port.
func DefaultConfig() Config {
	return Config{BaseURL: "http://localhost:8080"}
}

// New creates a sidecar API client. Timeouts are enforced per operation, not
// on the http.Client, because the four endpoints carry different budgets.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{},
	}
}

// BaseURL returns the configured sidecar base address.
func (c *Client) BaseURL() string { return c.baseURL }

// Health issues GET /api/health. Success iff the response status is in the
// 2xx class.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return &RequestError{Op: "health", Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("health check unreachable", "error", err)
		return &RequestError{Op: "health", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("health check failed", "status", resp.StatusCode)
		return &HealthError{Status: resp.StatusCode}
	}
	return nil
}

// AuthStatus issues GET /api/auth-status and decodes the reply.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, AuthStatusTimeout)
	defer cancel()

	var status AuthStatus
	if err := c.getJSON(ctx, "auth-status", "/api/auth-status", &status); err != nil {
		return AuthStatus{}, err
	}
	c.logger.Debug("auth status fetched",
		"authenticated", status.Authenticated,
		"has_stored_credentials", status.HasStoredCredentials)
	return status, nil
}

// Login issues POST /api/login with the given credentials and decodes the
// sidecar's verdict. The business meaning of the reply is opaque here.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()

	var result LoginResult
	if err := c.postJSON(ctx, "login", "/api/login", req, &result); err != nil {
		return LoginResult{}, err
	}
	c.logger.Debug("login completed", "success", result.Success)
	return result, nil
}

// Logout issues POST /api/logout, optionally asking the sidecar to clear its
// stored credentials.
func (c *Client) Logout(ctx context.Context, req LogoutRequest) (LogoutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, LogoutTimeout)
	defer cancel()

	var result LogoutResult
	if err := c.postJSON(ctx, "logout", "/api/logout", req, &result); err != nil {
		return LogoutResult{}, err
	}
	c.logger.Debug("logout completed", "success", result.Success)
	return result, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	return c.do(op, req, out)
}

// postJSON marshals body, performs a POST, and decodes the JSON response
// into out.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("sidecar request failed", "op", op, "error", err)
		return &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Debug("sidecar response undecodable", "op", op, "error", err)
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
