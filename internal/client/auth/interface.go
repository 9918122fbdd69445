package auth

import (
	"context"

	"github.com/iudanet/livedesk/internal/client/storage"
)

//go:generate go tool moq -out service_mock.go . Service

// Service defines the main interface for authentication operations.
// Управляет и самой аутентификацией (register/login), и локальной
// сессией в хранилище клиента.
type Service interface {
	// Register регистрирует нового пользователя
	Register(ctx context.Context, username, email, password string) (*RegisterResult, error)

	// Login выполняет аутентификацию и сохраняет сессию локально
	Login(ctx context.Context, username, password string) (*storage.AuthData, error)

	// RefreshSession обменивает refresh token на новую пару токенов
	// и обновляет сохраненную сессию
	RefreshSession(ctx context.Context) error

	// Session возвращает текущую сохраненную сессию.
	// Returns storage.ErrAuthNotFound if not logged in
	Session(ctx context.Context) (*storage.AuthData, error)

	// IsAuthenticated checks if valid authentication exists
	IsAuthenticated(ctx context.Context) (bool, error)

	// Logout выполняет выход: уведомляет сервер (best effort)
	// и удаляет локальную сессию
	Logout(ctx context.Context) error
}
