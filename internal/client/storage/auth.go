package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing authentication data on client.
// Токены хранятся как есть: база клиента лежит в домашнем каталоге
// пользователя с правами 0600.
type AuthStorage interface {
	// SaveAuth stores authentication data
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data.
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if valid authentication exists (not expired)
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents authentication information in storage
type AuthData struct {
	Username     string    `json:"username"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	NodeID       string    `json:"node_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	PublicSalt   string    `json:"public_salt"`
	ExpiresAt    time.Time `json:"expires_at"`
}
