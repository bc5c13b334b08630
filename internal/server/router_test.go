package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mng "github.com/tyler-johnson/ttai/internal/manager"
	"github.com/tyler-johnson/ttai/internal/process"
)

// newTestRouter wires a supervisor over a fake sidecar endpoint and returns
// the control API handler.
func newTestRouter(t *testing.T, sidecar http.HandlerFunc) (http.Handler, *mng.Supervisor) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires the sleep binary")
	}
	mock := httptest.NewServer(sidecar)
	t.Cleanup(mock.Close)

	sup := mng.New(mng.Config{
		Spec:          process.Spec{Name: "test-sidecar", Command: "sleep", Args: []string{"60"}},
		BaseURL:       mock.URL,
		ReadyAttempts: 5,
		ReadyInterval: 5 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { _ = sup.Stop() })

	return NewRouter(sup, "/api").Handler(), sup
}

func healthySidecar(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/health":
		w.WriteHeader(http.StatusOK)
	case "/api/auth-status":
		_, _ = w.Write([]byte(`{"authenticated": false, "has_stored_credentials": true}`))
	case "/api/login":
		_, _ = w.Write([]byte(`{"success": true, "error": null}`))
	case "/api/logout":
		_, _ = w.Write([]byte(`{"success": true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStartStopStatusFlow(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st mng.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Running)

	w = doRequest(t, h, http.MethodPost, "/api/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Running)
	assert.Positive(t, st.PID)

	w = doRequest(t, h, http.MethodPost, "/api/stop", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Running)
}

func TestStartConflictWhenRunning(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/start", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodPost, "/api/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "already running")
}

func TestStopIsAlwaysOK(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, h, http.MethodPost, "/api/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReconnectEndpoint(t *testing.T) {
	h, sup := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/reconnect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sup.IsRunning())
}

func TestReconnectReportsNotReady(t *testing.T) {
	h, _ := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := doRequest(t, h, http.MethodPost, "/api/reconnect", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPingEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodGet, "/api/ping", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Result string `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Result)
}

func TestLoginEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/login",
		`{"client_secret":"s","refresh_token":"r","remember_me":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
}

func TestLoginRejectsInvalidJSON(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/login", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodPost, "/api/logout", `{"clear_credentials":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAuthStatusEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodGet, "/api/auth-status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Authenticated        bool `json:"authenticated"`
		HasStoredCredentials bool `json:"has_stored_credentials"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
	assert.True(t, resp.HasStoredCredentials)
}

func TestRemoteFailureMapsToBadGateway(t *testing.T) {
	mock := httptest.NewServer(http.HandlerFunc(healthySidecar))
	mock.Close() // unreachable sidecar

	sup := mng.New(mng.Config{
		Spec:    process.Spec{Name: "test-sidecar", Command: "sleep", Args: []string{"60"}},
		BaseURL: mock.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h := NewRouter(sup, "/api").Handler()

	w := doRequest(t, h, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	w = doRequest(t, h, http.MethodGet, "/api/auth-status", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, healthySidecar)

	w := doRequest(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSanitizeBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"api", "/api"},
		{"/api", "/api"},
		{"/api/", "/api"},
		{"  /api  ", "/api"},
	}
	for _, tt := range tests {
		if got := sanitizeBase(tt.in); got != tt.want {
			t.Errorf("sanitizeBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
