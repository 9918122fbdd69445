package models

import "time"

// User представляет пользователя в системе
type User struct {
	ID          string     `json:"id"`                   // UUID пользователя
	Username    string     `json:"username"`             // уникальный username
	Email       string     `json:"email"`                // email, к нему привязана подписка
	AuthKeyHash string     `json:"auth_key_hash"`        // SHA256 хеш auth_key
	PublicSalt  string     `json:"public_salt"`          // base64 encoded salt (32 bytes)
	CreatedAt   time.Time  `json:"created_at"`           // время создания
	LastLogin   *time.Time `json:"last_login,omitempty"` // время последнего входа
}

// RefreshToken представляет refresh token пользователя
type RefreshToken struct {
	Token     string    `json:"token"`      // значение токена
	UserID    string    `json:"user_id"`    // ID пользователя
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}

// Subscription представляет подписку пользователя
type Subscription struct {
	UserEmail        string     `json:"user_email"`                   // email пользователя
	Status           string     `json:"status"`                       // free | pro
	Plan             string     `json:"plan,omitempty"`               // pro-monthly | pro-yearly
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"` // конец оплаченного периода
}
