package storage

import "errors"

// Ошибки серверного хранилища
var (
	// ErrUserNotFound - пользователя нет
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists - username или email уже заняты
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound - refresh токена нет
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrInvalidToken - токен не в том формате
	ErrInvalidToken = errors.New("invalid token")

	// ErrSubscriptionNotFound - для email нет записи о подписке
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrSnapshotNotFound - для комнаты не сохранялся снапшот
	ErrSnapshotNotFound = errors.New("board snapshot not found")
)
