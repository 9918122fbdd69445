package boltdb

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/client/storage"
	"github.com/iudanet/livedesk/internal/models"
)

func record(id string, props string) *models.Record {
	return &models.Record{
		ID:        id,
		TypeName:  models.TypeShape,
		NodeID:    "node-abc",
		Props:     json.RawMessage(props),
		Timestamp: 7,
	}
}

func TestStorage_SaveGetBoard(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	records := []*models.Record{
		record("s1", `{"geo":"rectangle"}`),
		record("s2", `{"geo":"ellipse"}`),
	}
	require.NoError(t, s.SaveBoard(ctx, "room-1", records))

	got, err := s.GetBoard(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]*models.Record{}
	for _, r := range got {
		byID[r.ID] = r
	}
	require.Contains(t, byID, "s1")
	assert.Equal(t, models.TypeShape, byID["s1"].TypeName)
	assert.Equal(t, int64(7), byID["s1"].Timestamp)
	assert.JSONEq(t, `{"geo":"rectangle"}`, string(byID["s1"].Props))
}

func TestStorage_SaveBoardReplacesCache(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBoard(ctx, "room-1", []*models.Record{
		record("s1", `{}`),
		record("s2", `{}`),
	}))

	// Вторая запись удалена на доске - кеш должен это отразить
	require.NoError(t, s.SaveBoard(ctx, "room-1", []*models.Record{
		record("s1", `{}`),
	}))

	got, err := s.GetBoard(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
}

func TestStorage_GetBoardNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetBoard(context.Background(), "unknown")
	assert.ErrorIs(t, err, storage.ErrBoardNotFound)
}

func TestStorage_DeleteBoard(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBoard(ctx, "room-1", []*models.Record{record("s1", `{}`)}))
	require.NoError(t, s.DeleteBoard(ctx, "room-1"))

	_, err := s.GetBoard(ctx, "room-1")
	assert.ErrorIs(t, err, storage.ErrBoardNotFound)

	assert.ErrorIs(t, s.DeleteBoard(ctx, "room-1"), storage.ErrBoardNotFound)
}

func TestStorage_ListBoards(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ids, err := s.ListBoards(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveBoard(ctx, "room-1", []*models.Record{record("s1", `{}`)}))
	require.NoError(t, s.SaveBoard(ctx, "room-2", nil))

	ids, err = s.ListBoards(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"room-1", "room-2"}, ids)
}

func TestStorage_EmptyBoardRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBoard(ctx, "room-1", nil))

	got, err := s.GetBoard(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
