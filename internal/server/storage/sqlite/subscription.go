package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/internal/server/storage"
)

// UpsertSubscription creates or replaces subscription for an email
func (s *Storage) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT OR REPLACE INTO subscriptions (user_email, status, plan, current_period_end)
		VALUES (?, ?, ?, ?)
	`

	var plan sql.NullString
	if sub.Plan != "" {
		plan = sql.NullString{String: sub.Plan, Valid: true}
	}

	var periodEnd sql.NullTime
	if sub.CurrentPeriodEnd != nil {
		periodEnd = sql.NullTime{Time: *sub.CurrentPeriodEnd, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query, sub.UserEmail, sub.Status, plan, periodEnd)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

// GetSubscription retrieves subscription by user email
func (s *Storage) GetSubscription(ctx context.Context, email string) (*models.Subscription, error) {
	query := `
		SELECT user_email, status, plan, current_period_end
		FROM subscriptions
		WHERE user_email = ?
	`

	sub := &models.Subscription{}
	var plan sql.NullString
	var periodEnd sql.NullTime

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&sub.UserEmail,
		&sub.Status,
		&plan,
		&periodEnd,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	if plan.Valid {
		sub.Plan = plan.String
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}

	return sub, nil
}

// DeleteSubscription deletes subscription by user email
func (s *Storage) DeleteSubscription(ctx context.Context, email string) error {
	query := `DELETE FROM subscriptions WHERE user_email = ?`

	result, err := s.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrSubscriptionNotFound
	}

	return nil
}
