package auth

import "time"

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct{}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid     bool   `json:"valid"`
	SessionID string `json:"session_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SessionRequest represents a current-session request.
type SessionRequest struct{}

// SessionResponse describes the active session.
type SessionResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
