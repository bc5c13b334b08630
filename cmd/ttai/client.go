package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultAPIUrl = "http://127.0.0.1:9090/api"

// APIClient provides HTTP client functionality to communicate with a running
// ttai supervisor daemon.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new control API client.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = defaultAPIUrl
	}
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsReachable checks if the supervisor daemon is running and reachable.
func (c *APIClient) IsReachable() bool {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Start spawns the sidecar via the daemon.
func (c *APIClient) Start() error {
	return c.post("/start", nil, nil)
}

// Stop terminates the sidecar via the daemon.
func (c *APIClient) Stop() error {
	return c.post("/stop", nil, nil)
}

// Reconnect restarts the sidecar and waits for readiness.
func (c *APIClient) Reconnect() error {
	return c.post("/reconnect", nil, nil)
}

// Status fetches the supervisor's lifecycle snapshot.
func (c *APIClient) Status() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.get("/status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping issues a health check through the daemon.
func (c *APIClient) Ping() (string, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.get("/ping", &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Login forwards credentials to the sidecar through the daemon.
func (c *APIClient) Login(clientSecret, refreshToken string, rememberMe bool) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"client_secret": clientSecret,
		"refresh_token": refreshToken,
		"remember_me":   rememberMe,
	}
	var out map[string]interface{}
	if err := c.post("/login", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Logout forwards a logout request through the daemon.
func (c *APIClient) Logout(clearCredentials bool) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"clear_credentials": clearCredentials,
	}
	var out map[string]interface{}
	if err := c.post("/logout", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AuthStatus fetches the sidecar's authentication state through the daemon.
func (c *APIClient) AuthStatus() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.get("/auth-status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) get(path string, out interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return c.decode(resp, out)
}

func (c *APIClient) post(path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	resp, err := c.client.Post(c.baseURL+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return c.decode(resp, out)
}

func (c *APIClient) decode(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
