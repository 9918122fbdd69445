// Package boltdb хранит локальное состояние клиента в BoltDB:
// сессию авторизации и кеш досок по комнатам.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// имена bucket-ов
	bucketAuth   = []byte("auth")
	bucketBoards = []byte("boards")
)

// Storage - клиентское хранилище поверх одного файла BoltDB
type Storage struct {
	db *bbolt.DB
}

// New открывает файл BoltDB по пути dbPath и создает bucket-ы
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close закрывает файл базы
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает bucket-ы, если их еще нет
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}

		// Кеш досок: вложенный bucket на каждую комнату
		if _, err := tx.CreateBucketIfNotExists(bucketBoards); err != nil {
			return fmt.Errorf("failed to create boards bucket: %w", err)
		}

		return nil
	})
}
