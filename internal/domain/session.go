package domain

import "time"

// Session represents a pending OAuth install, keyed by its state parameter
type Session struct {
	State     string    `json:"state"`
	Shop      string    `json:"shop"`
	UserID    string    `json:"user_id"`
	Provider  Provider  `json:"provider"`
	Scopes    []string  `json:"scopes"`
	ReturnURL string    `json:"return_url"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
