package storage

import (
	"context"

	"github.com/iudanet/livedesk/internal/models"
)

// BoardStorage defines interface for the local board cache.
// Клиент сохраняет контентные записи комнаты при выходе и поднимает
// их при следующем заходе, чтобы доска открывалась мгновенно,
// до первого снимка от пиров.
type BoardStorage interface {
	// SaveBoard replaces the cached records of a room
	SaveBoard(ctx context.Context, roomID string, records []*models.Record) error

	// GetBoard retrieves cached records of a room.
	// Returns ErrBoardNotFound if the room was never cached
	GetBoard(ctx context.Context, roomID string) ([]*models.Record, error)

	// DeleteBoard removes the cached records of a room
	DeleteBoard(ctx context.Context, roomID string) error

	// ListBoards returns ids of all cached rooms
	ListBoards(ctx context.Context) ([]string, error)
}
