package presence

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

type fakeTransport struct {
	participantID string

	mu     sync.Mutex
	events []api.Event
}

func (f *fakeTransport) Publish(_ context.Context, event api.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeTransport) Subscribe(func(*api.Envelope)) func()         { return func() {} }
func (f *fakeTransport) Status() transport.Status                     { return transport.StatusConnected }
func (f *fakeTransport) OnStatusChange(func(transport.Status)) func() { return func() {} }
func (f *fakeTransport) ParticipantID() string                        { return f.participantID }
func (f *fakeTransport) Close() error                                 { return nil }

func (f *fakeTransport) published() []api.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Event, len(f.events))
	copy(out, f.events)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func roster(ids ...string) api.Roster {
	r := api.Roster{}
	for _, id := range ids {
		r.Participants = append(r.Participants, api.Participant{
			ID:          id,
			DisplayName: "user-" + id,
		})
	}
	return r
}

func TestTracker_JoinLeaveCallbacks(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{})

	var joined, left []string
	tracker.OnJoin(func(p api.Participant) { joined = append(joined, p.ID) })
	tracker.OnLeave(func(p api.Participant) { left = append(left, p.ID) })

	tracker.HandleRoster(roster("self", "alice"))
	tracker.HandleRoster(roster("self", "alice", "bob"))
	tracker.HandleRoster(roster("self", "bob"))

	assert.Equal(t, []string{"alice", "bob"}, joined)
	assert.Equal(t, []string{"alice"}, left)
}

func TestTracker_SelfNeverInCallbacks(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{})

	var joined []string
	tracker.OnJoin(func(p api.Participant) { joined = append(joined, p.ID) })

	tracker.HandleRoster(roster("self"))
	tracker.HandleRoster(roster("self", "alice"))

	assert.Equal(t, []string{"alice"}, joined)
}

func TestTracker_RepeatedRosterIsSilent(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{})

	var events int
	tracker.OnJoin(func(api.Participant) { events++ })
	tracker.OnLeave(func(api.Participant) { events++ })

	tracker.HandleRoster(roster("self", "alice"))
	require.Equal(t, 1, events)

	tracker.HandleRoster(roster("self", "alice"))
	assert.Equal(t, 1, events, "Identical roster frame must not fire callbacks")
}

func TestTracker_HandlePresenceStoresPeerCursor(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{})

	tracker.HandlePresence("alice", api.Presence{
		Cursor:      &api.Point{X: 10, Y: 20},
		DisplayName: "Alice",
		Color:       "blue",
	})
	// Свои кадры (эхо от сервера) игнорируются
	tracker.HandlePresence("self", api.Presence{Cursor: &api.Point{X: 1, Y: 1}})

	peers := tracker.Peers()
	require.Len(t, peers, 1)
	assert.Equal(t, "alice", peers[0].ParticipantID)
	require.NotNil(t, peers[0].Cursor)
	assert.Equal(t, models.Point{X: 10, Y: 20}, *peers[0].Cursor)
	assert.Equal(t, "Alice", peers[0].DisplayName)
}

func TestTracker_LeaveDropsPeerPresence(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{})

	tracker.HandleRoster(roster("self", "alice"))
	tracker.HandlePresence("alice", api.Presence{Cursor: &api.Point{X: 1, Y: 2}})
	require.Len(t, tracker.Peers(), 1)

	tracker.HandleRoster(roster("self"))
	assert.Empty(t, tracker.Peers(), "Presence of a departed participant must be dropped")
}

func TestTracker_CursorThrottle(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{CursorThrottle: 50 * time.Millisecond})

	current := time.Unix(1000, 0)
	tracker.now = func() time.Time { return current }

	ctx := context.Background()
	tracker.MoveCursor(ctx, models.Point{X: 1, Y: 1})
	tracker.MoveCursor(ctx, models.Point{X: 2, Y: 2}) // внутри окна, отбрасывается

	current = current.Add(60 * time.Millisecond)
	tracker.MoveCursor(ctx, models.Point{X: 3, Y: 3})

	events := tr.published()
	require.Len(t, events, 2)

	first, ok := events[0].(api.Presence)
	require.True(t, ok)
	assert.Equal(t, &api.Point{X: 1, Y: 1}, first.Cursor)
	second := events[1].(api.Presence)
	assert.Equal(t, &api.Point{X: 3, Y: 3}, second.Cursor)
}

func TestTracker_ClearCursorNotThrottled(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	tracker := NewTracker(tr, testLogger(), Config{
		DisplayName:    "Self",
		Color:          "red",
		CursorThrottle: time.Hour,
	})

	ctx := context.Background()
	tracker.MoveCursor(ctx, models.Point{X: 1, Y: 1})
	tracker.ClearCursor(ctx)

	events := tr.published()
	require.Len(t, events, 2)
	cleared := events[1].(api.Presence)
	assert.Nil(t, cleared.Cursor)
	assert.Equal(t, "Self", cleared.DisplayName)
	assert.Equal(t, "red", cleared.Color)
}
