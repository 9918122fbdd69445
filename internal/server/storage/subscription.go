package storage

import (
	"context"

	"github.com/iudanet/livedesk/internal/models"
)

// SubscriptionStorage defines interface for subscription persistence.
// Subscriptions are keyed by user email: billing providers identify
// customers by email, not by our internal user id.
type SubscriptionStorage interface {
	// UpsertSubscription creates or replaces subscription for an email
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error

	// GetSubscription retrieves subscription by user email
	// Returns ErrSubscriptionNotFound if no record exists
	GetSubscription(ctx context.Context, email string) (*models.Subscription, error)

	// DeleteSubscription deletes subscription by user email
	// Returns ErrSubscriptionNotFound if no record exists
	DeleteSubscription(ctx context.Context, email string) error
}

// AIUsageStorage defines interface for per-user daily AI generation counters.
// Day is a date in "2006-01-02" format (server local time).
type AIUsageStorage interface {
	// IncrementAIUsage increments the counter for (userID, day) and
	// returns the new value
	IncrementAIUsage(ctx context.Context, userID, day string) (int, error)

	// GetAIUsage returns the counter for (userID, day), zero if absent
	GetAIUsage(ctx context.Context, userID, day string) (int, error)
}
