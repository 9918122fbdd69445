package sync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// capturingTransport собирает опубликованные события, не доставляя их никому.
type capturingTransport struct {
	mu     sync.Mutex
	events []api.Event
}

func (c *capturingTransport) Publish(_ context.Context, event api.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingTransport) Subscribe(func(*api.Envelope)) func()          { return func() {} }
func (c *capturingTransport) Status() transport.Status                      { return transport.StatusConnected }
func (c *capturingTransport) OnStatusChange(func(transport.Status)) func()  { return func() {} }
func (c *capturingTransport) ParticipantID() string                         { return "test" }
func (c *capturingTransport) Close() error                                  { return nil }

func (c *capturingTransport) published() []api.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Event, len(c.events))
	copy(out, c.events)
	return out
}

func newShape(id string) *models.Record {
	return &models.Record{
		ID:       id,
		TypeName: models.TypeShape,
		Props:    json.RawMessage(`{"geo":"rectangle"}`),
	}
}

func startObserver(t *testing.T, store *board.Store, tr transport.Transport) *Observer {
	t.Helper()
	obs := NewObserver(store, tr, testLogger(), ObserverConfig{})
	obs.Start()
	t.Cleanup(obs.Stop)
	return obs
}

func TestObserver_FlushPublishesDiff(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := startObserver(t, store, tr)

	store.Put(models.SourceUser, newShape("s1"))
	store.Remove(models.SourceUser, "s2")
	obs.Flush()

	events := tr.published()
	require.Len(t, events, 1)
	update, ok := events[0].(api.ShapeUpdate)
	require.True(t, ok)
	require.Len(t, update.Added, 1)
	assert.Equal(t, "s1", update.Added[0].ID)
	assert.Equal(t, []string{"s2"}, update.Removed)
}

func TestObserver_CoalescesBetweenFlushes(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := startObserver(t, store, tr)

	shape := newShape("s1")
	store.Put(models.SourceUser, shape)
	moved := shape.Clone()
	moved.Props = json.RawMessage(`{"geo":"ellipse"}`)
	store.Put(models.SourceUser, moved)
	obs.Flush()

	events := tr.published()
	require.Len(t, events, 1)
	update, ok := events[0].(api.ShapeUpdate)
	require.True(t, ok)
	require.Len(t, update.Added, 1, "Two edits of one record coalesce into a single entry")
	assert.Empty(t, update.Updated)
	assert.JSONEq(t, `{"geo":"ellipse"}`, string(update.Added[0].Props))
}

func TestObserver_AddThenRemoveCancelsOut(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := startObserver(t, store, tr)

	store.Put(models.SourceUser, newShape("s1"))
	store.Remove(models.SourceUser, "s1")
	obs.Flush()

	events := tr.published()
	require.Len(t, events, 1)
	update, ok := events[0].(api.ShapeUpdate)
	require.True(t, ok)
	assert.Empty(t, update.Added)
	assert.Empty(t, update.Updated)
	assert.Equal(t, []string{"s1"}, update.Removed)
}

func TestObserver_EmptyFlushPublishesNothing(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := startObserver(t, store, tr)

	obs.Flush()
	assert.Empty(t, tr.published())
}

func TestObserver_SystemRecordsNotPublished(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := startObserver(t, store, tr)

	store.SetCamera(models.Camera{X: 1, Y: 2, Zoom: 1})
	obs.Flush()

	assert.Empty(t, tr.published(), "Camera moves are local-only")
}

func TestObserver_SnapshotEvery(t *testing.T) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	tr := &capturingTransport{}
	obs := NewObserver(store, tr, testLogger(), ObserverConfig{SnapshotEvery: 2})
	obs.Start()
	defer obs.Stop()

	store.Put(models.SourceUser, newShape("s1"))
	obs.Flush()
	store.Put(models.SourceUser, newShape("s2"))
	obs.Flush()

	events := tr.published()
	require.Len(t, events, 2)
	_, isUpdate := events[0].(api.ShapeUpdate)
	assert.True(t, isUpdate)
	snapshot, isSnapshot := events[1].(api.ShapeSnapshot)
	require.True(t, isSnapshot, "Every Nth flush carries a full snapshot")
	assert.Len(t, snapshot.Records, 2)
}

// countingTransport оборачивает транспорт и считает вызовы Publish.
type countingTransport struct {
	transport.Transport
	mu    sync.Mutex
	count int
}

func (c *countingTransport) Publish(ctx context.Context, event api.Event) error {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return c.Transport.Publish(ctx, event)
}

func (c *countingTransport) publishes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Сквозной сценарий: две сессии над loopback-хабом сходятся к одному
// состоянию, и применение чужого батча не вызывает повторной публикации.
func TestSync_TwoSessionsConverge(t *testing.T) {
	hub := transport.NewLoopbackHub()

	storeA := board.NewStore(board.NewClockWithNodeID("node-a"))
	storeB := board.NewStore(board.NewClockWithNodeID("node-b"))

	trA := &countingTransport{Transport: hub.Connect("alice")}
	trB := &countingTransport{Transport: hub.Connect("bob")}
	defer trA.Close()
	defer trB.Close()

	wireSession := func(store *board.Store, tr transport.Transport) {
		rec := NewReconciler(store, testLogger())
		tr.Subscribe(func(env *api.Envelope) {
			event, err := env.Decode()
			if err != nil {
				return
			}
			switch e := event.(type) {
			case api.ShapeUpdate:
				rec.ApplyBatch(&e)
			case api.ShapeSnapshot:
				rec.ApplySnapshot(&e)
			}
		})
	}
	wireSession(storeA, trA)
	wireSession(storeB, trB)

	obsA := startObserver(t, storeA, trA)
	obsB := startObserver(t, storeB, trB)

	// Alice рисует, Bob двигает свою заметку
	storeA.Put(models.SourceUser, newShape("shape-a"))
	note := &models.Record{
		ID:       "note-b",
		TypeName: models.TypeNote,
		Props:    json.RawMessage(`{"text":"hello"}`),
	}
	storeB.Put(models.SourceUser, note)

	obsA.Flush()
	obsB.Flush()

	// Оба стора видят обе записи
	require.Equal(t, 2, storeA.Len())
	require.Equal(t, 2, storeB.Len())
	assert.NotNil(t, storeA.Get("note-b"))
	assert.NotNil(t, storeB.Get("shape-a"))

	// Применение чужого батча не породило новых публикаций
	beforeA, beforeB := trA.publishes(), trB.publishes()
	obsA.Flush()
	obsB.Flush()
	assert.Equal(t, beforeA, trA.publishes(), "Remote apply must not be echoed back")
	assert.Equal(t, beforeB, trB.publishes())
}
