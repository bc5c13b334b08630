package client

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	RememberMe   bool   `json:"remember_me"`
}

// LoginResult is the sidecar's response to a login attempt. Error is empty on
// success; the supervisor relays it without interpretation.
type LoginResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LogoutRequest is the body of POST /api/logout.
type LogoutRequest struct {
	ClearCredentials bool `json:"clear_credentials"`
}

// LogoutResult is the sidecar's response to a logout attempt.
type LogoutResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthStatus reports the sidecar's authentication state.
type AuthStatus struct {
	Authenticated        bool `json:"authenticated"`
	HasStoredCredentials bool `json:"has_stored_credentials"`
}
