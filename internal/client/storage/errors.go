package storage

import "errors"

// Ошибки локального хранилища клиента
var (
	// ErrAuthNotFound - локальной сессии нет, нужен login
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrBoardNotFound - доска комнаты еще не кешировалась локально
	ErrBoardNotFound = errors.New("board cache not found")

	// ErrStorageClosed - работа с уже закрытым хранилищем
	ErrStorageClosed = errors.New("storage is closed")
)
