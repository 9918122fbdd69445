package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/session"
	"github.com/iudanet/livedesk/internal/client/storage"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

func (c *Cli) runJoin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: livedesk join <room>")
	}
	roomID := args[0]

	auth, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	store := board.NewStore(board.NewClockWithNodeID(auth.NodeID))
	c.restoreBoard(ctx, roomID, store)

	tr := transport.NewWebsocket(transport.WebsocketConfig{
		URL:           fmt.Sprintf("%s/api/v1/rooms/%s/ws", c.wsURL, roomID),
		AccessToken:   auth.AccessToken,
		ParticipantID: auth.NodeID,
	}, c.logger)

	sess := session.New(store, tr, c.logger, session.Config{
		DisplayName: auth.Username,
	})

	sess.Presence().OnJoin(func(p api.Participant) {
		c.io.Printf("→ %s joined the room\n", p.DisplayName)
	})
	sess.Presence().OnLeave(func(p api.Participant) {
		c.io.Printf("← %s left the room\n", p.DisplayName)
	})
	tr.OnStatusChange(func(status transport.Status) {
		c.io.Printf("connection: %s\n", status)
	})

	c.io.Printf("Joined room %q as %s. Press Ctrl+C to leave.\n", roomID, auth.Username)

	<-ctx.Done()

	// Сохраняем кеш доски для мгновенного открытия в следующий раз.
	// ctx уже отменен, поэтому берем фоновый.
	saveCtx := context.Background()
	if err := c.boards.SaveBoard(saveCtx, roomID, store.AllContent()); err != nil {
		c.io.Printf("Warning: failed to cache board: %v\n", err)
	}

	if err := sess.Close(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	c.io.Println()
	c.io.Println("Left the room.")
	return nil
}

// requireSession возвращает сохраненную сессию или понятную ошибку
func (c *Cli) requireSession(ctx context.Context) (*storage.AuthData, error) {
	auth, err := c.authService.Session(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, fmt.Errorf("not authenticated, run 'livedesk login' first")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return auth, nil
}

// restoreBoard поднимает кешированные записи комнаты в store.
// Кеш восстанавливается с удаленным source: это не пользовательские
// правки, и рассылать их заново не нужно.
func (c *Cli) restoreBoard(ctx context.Context, roomID string, store *board.Store) {
	records, err := c.boards.GetBoard(ctx, roomID)
	if err != nil {
		if !errors.Is(err, storage.ErrBoardNotFound) {
			c.io.Printf("Warning: failed to load cached board: %v\n", err)
		}
		return
	}

	store.Put(models.SourceRemote, records...)
	c.io.Printf("Restored %d cached record(s).\n", len(records))
}
