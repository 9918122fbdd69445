package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// IncrementAIUsage increments the counter for (userID, day) and returns the new value
func (s *Storage) IncrementAIUsage(ctx context.Context, userID, day string) (int, error) {
	query := `
		INSERT INTO ai_usage (user_id, day, count)
		VALUES (?, ?, 1)
		ON CONFLICT(user_id, day) DO UPDATE SET count = count + 1
	`

	if _, err := s.db.ExecContext(ctx, query, userID, day); err != nil {
		return 0, fmt.Errorf("failed to increment ai usage: %w", err)
	}

	return s.GetAIUsage(ctx, userID, day)
}

// GetAIUsage returns the counter for (userID, day), zero if absent
func (s *Storage) GetAIUsage(ctx context.Context, userID, day string) (int, error) {
	query := `SELECT count FROM ai_usage WHERE user_id = ? AND day = ?`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get ai usage: %w", err)
	}

	return count, nil
}
