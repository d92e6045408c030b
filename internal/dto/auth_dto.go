package dto

import "time"

// LoginRequest carries the teacher credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token for subsequent requests.
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse reports whether the logged-in flag is set.
type SessionResponse struct {
	LoggedIn bool `json:"logged_in"`
}
