package storage

import (
	"context"
	"time"

	"github.com/iudanet/livedesk/internal/models"
)

// UserStorage хранит учетные записи пользователей
type UserStorage interface {
	// CreateUser создает нового пользователя.
	// ErrUserAlreadyExists, если username или email заняты.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername возвращает пользователя по имени.
	// ErrUserNotFound, если пользователя нет.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID возвращает пользователя по ID.
	// ErrUserNotFound, если пользователя нет.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser обновляет данные пользователя.
	// ErrUserNotFound, если пользователя нет.
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser удаляет пользователя по ID.
	// ErrUserNotFound, если пользователя нет.
	DeleteUser(ctx context.Context, userID string) error

	// UpdateLastLogin отмечает время последнего входа
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}
