package cli

import (
	"context"
	"fmt"
)

// runLogout завершает сессию на сервере и удаляет локальные токены
func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logged out.")
	c.io.Println("Local session removed; cached boards are kept.")

	return nil
}
