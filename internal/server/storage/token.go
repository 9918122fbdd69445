package storage

import (
	"context"

	"github.com/iudanet/livedesk/internal/models"
)

// TokenStorage хранит refresh токены. Один пользователь может держать
// несколько токенов: по одному на устройство, с которого он входил.
type TokenStorage interface {
	// SaveRefreshToken сохраняет токен; существующий с тем же значением
	// перезаписывается
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken возвращает токен по значению.
	// ErrTokenNotFound, если токена нет.
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// GetUserTokens возвращает все refresh токены пользователя
	GetUserTokens(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// DeleteRefreshToken удаляет токен по значению.
	// ErrTokenNotFound, если токена нет.
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteUserTokens удаляет все токены пользователя (logout со всех
	// устройств). Возвращает число удаленных.
	DeleteUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredTokens удаляет протухшие токены, возвращает число
	// удаленных
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
