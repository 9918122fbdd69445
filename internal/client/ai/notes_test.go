package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/models"
)

func newStore() *board.Store {
	return board.NewStore(board.NewClockWithNodeID("local"))
}

func TestPlaceNotes_CreatesRecordPerText(t *testing.T) {
	store := newStore()

	texts := []string{"one", "two", "three", "four", "five"}
	ids, err := PlaceNotes(store, texts)
	require.NoError(t, err)
	require.Len(t, ids, 5)

	for i, id := range ids {
		record := store.Get(id)
		require.NotNil(t, record)
		assert.Equal(t, models.TypeNote, record.TypeName)

		props, err := models.UnmarshalNoteProps(record.Props)
		require.NoError(t, err)
		assert.Equal(t, texts[i], props.Text)
	}
}

func TestPlaceNotes_ExistingRecordsUntouched(t *testing.T) {
	store := newStore()
	existing := &models.Record{
		ID:       "shape-1",
		TypeName: models.TypeShape,
		Props:    json.RawMessage(`{"geo":"rectangle"}`),
	}
	store.Put(models.SourceUser, existing)
	before := store.Get("shape-1")

	_, err := PlaceNotes(store, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, before, store.Get("shape-1"))
	assert.Equal(t, 3, store.Len())
}

func TestPlaceNotes_GridLayout(t *testing.T) {
	store := newStore()
	store.SetCamera(models.Camera{X: 1000, Y: 500, Zoom: 1})

	ids, err := PlaceNotes(store, []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	var props []*models.NoteProps
	for _, id := range ids {
		p, err := models.UnmarshalNoteProps(store.Get(id).Props)
		require.NoError(t, err)
		props = append(props, p)
	}

	// Первая строка: три колонки слева направо
	assert.Less(t, props[0].X, props[1].X)
	assert.Less(t, props[1].X, props[2].X)
	assert.Equal(t, props[0].Y, props[1].Y)
	assert.Equal(t, props[1].Y, props[2].Y)

	// Четвертая заметка переносится на вторую строку, в первую колонку
	assert.Equal(t, props[0].X, props[3].X)
	assert.Greater(t, props[3].Y, props[0].Y)

	// Сетка центрируется вокруг камеры
	minX, maxX := props[0].X, props[2].X+noteWidth
	assert.InDelta(t, 1000, (minX+maxX)/2, 0.001)
}

func TestPlaceNotes_EmptyInput(t *testing.T) {
	store := newStore()
	ids, err := PlaceNotes(store, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, store.Len())
}

func TestPlaceNotes_ColorsCycle(t *testing.T) {
	store := newStore()
	ids, err := PlaceNotes(store, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	first, err := models.UnmarshalNoteProps(store.Get(ids[0]).Props)
	require.NoError(t, err)
	fifth, err := models.UnmarshalNoteProps(store.Get(ids[4]).Props)
	require.NoError(t, err)

	assert.Equal(t, models.NoteColorYellow, first.Color)
	assert.Equal(t, models.NoteColorYellow, fifth.Color, "Palette wraps after four colors")
}
