package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runBoards(ctx context.Context) error {
	ids, err := c.boards.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached boards: %w", err)
	}

	if len(ids) == 0 {
		c.io.Println("No cached boards.")
		return nil
	}

	c.io.Printf("Cached boards (%d):\n", len(ids))
	for _, id := range ids {
		records, err := c.boards.GetBoard(ctx, id)
		if err != nil {
			c.io.Printf("  %s (unreadable: %v)\n", id, err)
			continue
		}
		c.io.Printf("  %s: %d record(s)\n", id, len(records))
	}

	return nil
}
