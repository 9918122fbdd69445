package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/livedesk/internal/client/storage"
	"github.com/iudanet/livedesk/internal/models"
)

// SaveBoard replaces the cached records of a room.
// Кеш перезаписывается целиком: вложенный bucket комнаты пересоздается,
// чтобы удаленные записи не воскресали при следующем заходе.
func (s *Storage) SaveBoard(ctx context.Context, roomID string, records []*models.Record) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return fmt.Errorf("boards bucket not found")
		}

		key := []byte(roomID)
		if boards.Bucket(key) != nil {
			if err := boards.DeleteBucket(key); err != nil {
				return fmt.Errorf("failed to reset board cache: %w", err)
			}
		}

		room, err := boards.CreateBucket(key)
		if err != nil {
			return fmt.Errorf("failed to create board bucket: %w", err)
		}

		for _, record := range records {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
			}
			if err := room.Put([]byte(record.ID), data); err != nil {
				return fmt.Errorf("failed to save record %s: %w", record.ID, err)
			}
		}

		return nil
	})
}

// GetBoard retrieves cached records of a room
func (s *Storage) GetBoard(ctx context.Context, roomID string) ([]*models.Record, error) {
	var records []*models.Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return fmt.Errorf("boards bucket not found")
		}

		room := boards.Bucket([]byte(roomID))
		if room == nil {
			return storage.ErrBoardNotFound
		}

		return room.ForEach(func(_, data []byte) error {
			record := &models.Record{}
			if err := json.Unmarshal(data, record); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			records = append(records, record)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteBoard removes the cached records of a room
func (s *Storage) DeleteBoard(ctx context.Context, roomID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return fmt.Errorf("boards bucket not found")
		}

		if boards.Bucket([]byte(roomID)) == nil {
			return storage.ErrBoardNotFound
		}

		if err := boards.DeleteBucket([]byte(roomID)); err != nil {
			return fmt.Errorf("failed to delete board cache: %w", err)
		}

		return nil
	})
}

// ListBoards returns ids of all cached rooms
func (s *Storage) ListBoards(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		boards := tx.Bucket(bucketBoards)
		if boards == nil {
			return fmt.Errorf("boards bucket not found")
		}

		return boards.ForEachBucket(func(key []byte) error {
			ids = append(ids, string(key))
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return ids, nil
}
