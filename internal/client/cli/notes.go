package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/ai"
	"github.com/iudanet/livedesk/internal/client/session"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

const (
	defaultNoteCount = 5
	// connectTimeout максимальное ожидание соединения с relay:
	// без живого соединения публикация стикеров молча дропнется
	connectTimeout = 15 * time.Second
)

// runNotes генерирует стикеры по теме и выкладывает их в комнату:
// проверяет лимит плана, получает список от сервера, подключается,
// публикует и выходит.
func (c *Cli) runNotes(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: livedesk notes <room> <topic> [count]")
	}
	roomID, topic := args[0], args[1]

	count := defaultNoteCount
	if len(args) > 2 {
		parsed, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid note count %q: %w", args[2], err)
		}
		count = parsed
	}

	auth, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	store := board.NewStore(board.NewClockWithNodeID(auth.NodeID))
	c.restoreBoard(ctx, roomID, store)

	// Лимит стикеров на комнату проверяется до генерации, чтобы не
	// тратить дневную квоту AI на заведомо невставляемые заметки
	sub, err := c.apiClient.GetSubscription(ctx, auth.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to get subscription status: %w", err)
	}
	if limit := sub.Limits.NotesPerRoom; limit > 0 {
		existing := countNotes(store)
		if existing+count > limit {
			return fmt.Errorf(
				"notes limit reached: room %q has %d of %d notes, cannot add %d more (upgrade to pro)",
				roomID, existing, limit, count)
		}
	}

	c.io.Printf("Generating %d note(s) on %q...\n", count, topic)

	resp, err := c.apiClient.GenerateNotes(ctx, auth.AccessToken, api.GenerateNotesRequest{
		Topic: topic,
		Count: count,
	})
	if err != nil {
		return err
	}

	// Подключаемся к комнате и публикуем стикеры
	tr := transport.NewWebsocket(transport.WebsocketConfig{
		URL:           fmt.Sprintf("%s/api/v1/rooms/%s/ws", c.wsURL, roomID),
		AccessToken:   auth.AccessToken,
		ParticipantID: auth.NodeID,
	}, c.logger)

	sess := session.New(store, tr, c.logger, session.Config{
		DisplayName: auth.Username,
	})

	if err := transport.WaitConnected(tr, connectTimeout); err != nil {
		_ = sess.Close()
		return fmt.Errorf("failed to reach room %q: %w", roomID, err)
	}

	ids, err := ai.PlaceNotes(store, resp.Notes)
	if err != nil {
		_ = sess.Close()
		return fmt.Errorf("failed to place notes: %w", err)
	}

	// Публикуем немедленно: Stop дропает накопленный батч
	sess.Flush()

	if err := sess.Close(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	if err := c.boards.SaveBoard(ctx, roomID, store.AllContent()); err != nil {
		c.io.Printf("Warning: failed to cache board: %v\n", err)
	}

	c.io.Printf("✓ Placed %d note(s) in room %q:\n", len(ids), roomID)
	for _, text := range resp.Notes {
		c.io.Printf("  • %s\n", text)
	}

	return nil
}

// countNotes считает стикеры в store
func countNotes(store *board.Store) int {
	n := 0
	for _, record := range store.AllContent() {
		if record.TypeName == models.TypeNote {
			n++
		}
	}
	return n
}
