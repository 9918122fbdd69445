package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/livedesk/pkg/api"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	isAuth, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'livedesk login' to authenticate.")
		return nil
	}

	auth, err := c.authService.Session(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	remaining := time.Until(auth.ExpiresAt)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", auth.Username)
	c.io.Printf("Token expires: %s\n", auth.ExpiresAt.Format(time.RFC3339))
	if remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Token has expired. Please login again.")
	}

	// Статус подписки - best effort, сеть может быть недоступна
	sub, err := c.apiClient.GetSubscription(ctx, auth.AccessToken)
	if err != nil {
		c.io.Printf("\nWarning: failed to get subscription status: %v\n", err)
		return nil
	}

	c.io.Println()
	c.io.Printf("Plan: %s\n", sub.Status)
	if sub.Status == api.SubscriptionPro {
		if sub.CurrentPeriodEnd != "" {
			c.io.Printf("Renews: %s\n", sub.CurrentPeriodEnd)
		}
		return nil
	}

	c.io.Printf("AI generations per day: %d\n", sub.Limits.AIGenerationsPerDay)
	c.io.Printf("Collaborators per room: %d\n", sub.Limits.CollaboratorsPerRoom)
	c.io.Printf("Notes per room: %d\n", sub.Limits.NotesPerRoom)

	return nil
}
