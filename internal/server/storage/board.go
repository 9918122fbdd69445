package storage

import (
	"context"

	"github.com/iudanet/livedesk/internal/models"
)

// BoardSnapshotStorage defines interface for room snapshot persistence.
// The hub periodically saves the latest shape_snapshot per room and
// replays it to newly joined connections.
type BoardSnapshotStorage interface {
	// SaveSnapshot creates or replaces the snapshot for a room
	SaveSnapshot(ctx context.Context, snapshot *models.BoardSnapshot) error

	// GetSnapshot retrieves the snapshot for a room
	// Returns ErrSnapshotNotFound if no snapshot was saved yet
	GetSnapshot(ctx context.Context, roomID string) (*models.BoardSnapshot, error)

	// DeleteSnapshot deletes the snapshot for a room
	// Returns ErrSnapshotNotFound if no snapshot exists
	DeleteSnapshot(ctx context.Context, roomID string) error
}
