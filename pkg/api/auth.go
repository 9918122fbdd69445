package api

// RegisterRequest - запрос на регистрацию нового пользователя.
// Сервер пароль не видит: клиент присылает только хеш auth_key.
type RegisterRequest struct {
	Username    string `json:"username"`      // имя пользователя
	Email       string `json:"email"`         // email (к нему привязывается подписка)
	AuthKeyHash string `json:"auth_key_hash"` // SHA256 хеш auth_key (hex-encoded)
	PublicSalt  string `json:"public_salt"`   // base64 encoded salt (32 bytes)
}

// RegisterResponse - ответ на успешную регистрацию
type RegisterResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // сообщение об успешной регистрации
}

// SaltResponse - ответ с публичной солью пользователя,
// нужна клиенту для вывода auth_key перед login
type SaltResponse struct {
	PublicSalt string `json:"public_salt"` // base64 encoded salt
}

// LoginRequest - запрос на аутентификацию
type LoginRequest struct {
	Username    string `json:"username"`      // имя пользователя
	AuthKeyHash string `json:"auth_key_hash"` // SHA256 хеш auth_key (hex-encoded)
}

// TokenResponse - ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // refresh token
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
}

// ErrorResponse - ответ с ошибкой, единый формат для всех хендлеров
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
