package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/internal/server/storage"
)

// SaveSnapshot creates or replaces the snapshot for a room
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *models.BoardSnapshot) error {
	query := `
		INSERT OR REPLACE INTO board_snapshots (room_id, payload, updated_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		snapshot.RoomID,
		string(snapshot.Payload),
		snapshot.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save board snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves the snapshot for a room
func (s *Storage) GetSnapshot(ctx context.Context, roomID string) (*models.BoardSnapshot, error) {
	query := `
		SELECT room_id, payload, updated_at
		FROM board_snapshots
		WHERE room_id = ?
	`

	snapshot := &models.BoardSnapshot{}
	var payload string

	err := s.db.QueryRowContext(ctx, query, roomID).Scan(
		&snapshot.RoomID,
		&payload,
		&snapshot.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get board snapshot: %w", err)
	}

	snapshot.Payload = []byte(payload)
	return snapshot, nil
}

// DeleteSnapshot deletes the snapshot for a room
func (s *Storage) DeleteSnapshot(ctx context.Context, roomID string) error {
	query := `DELETE FROM board_snapshots WHERE room_id = ?`

	result, err := s.db.ExecContext(ctx, query, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete board snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSnapshotNotFound
	}

	return nil
}
