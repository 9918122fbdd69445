package follow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/board"
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

func newBroadcaster(tr transport.Transport, cfg Config) (*Broadcaster, *board.Store) {
	store := board.NewStore(board.NewClockWithNodeID("local"))
	return NewBroadcaster(store, tr, testLogger(), cfg), store
}

func TestBroadcaster_InitialStateIdle(t *testing.T) {
	b, _ := newBroadcaster(&fakeTransport{participantID: "self"}, Config{})
	state, leaderID := b.State()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, leaderID)
}

func TestBroadcaster_LeadingBroadcastsCamera(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, store := newBroadcaster(tr, Config{BroadcastInterval: 5 * time.Millisecond})

	store.SetCamera(models.Camera{X: 100, Y: 200, Zoom: 2})
	b.StartLeading()
	defer b.Stop()

	require.Eventually(t, func() bool {
		return len(tr.published()) >= 1
	}, time.Second, time.Millisecond)

	frame, ok := tr.published()[0].(api.FollowCamera)
	require.True(t, ok)
	assert.Equal(t, "self", frame.LeaderID)
	assert.Equal(t, api.Camera{X: 100, Y: 200, Zoom: 2}, frame.Camera)
}

func TestBroadcaster_LeadingSkipsUnchangedCamera(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, _ := newBroadcaster(tr, Config{BroadcastInterval: time.Millisecond})

	b.StartLeading()
	time.Sleep(20 * time.Millisecond)
	b.Stop()

	assert.Len(t, tr.published(), 1, "Unchanged camera must not be re-broadcast every tick")
}

func TestBroadcaster_FollowAppliesLeaderCamera(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, store := newBroadcaster(tr, Config{}) // TweenDuration=0 - мгновенно

	b.Follow("leader-1")
	state, leaderID := b.State()
	require.Equal(t, StateFollowing, state)
	require.Equal(t, "leader-1", leaderID)

	b.HandleFollowCamera(api.FollowCamera{
		LeaderID: "leader-1",
		Camera:   api.Camera{X: 50, Y: 60, Zoom: 1.5},
	})

	assert.Equal(t, models.Camera{X: 50, Y: 60, Zoom: 1.5}, store.Camera())
}

func TestBroadcaster_IgnoresForeignLeaderFrames(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, store := newBroadcaster(tr, Config{})

	store.SetCamera(models.Camera{X: 1, Y: 1, Zoom: 1})
	b.Follow("leader-1")

	b.HandleFollowCamera(api.FollowCamera{
		LeaderID: "leader-2",
		Camera:   api.Camera{X: 99, Y: 99, Zoom: 9},
	})

	assert.Equal(t, models.Camera{X: 1, Y: 1, Zoom: 1}, store.Camera())
}

func TestBroadcaster_TweenConvergesToTarget(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, store := newBroadcaster(tr, Config{
		TweenDuration: 10 * time.Millisecond,
		TweenStep:     time.Millisecond,
	})

	store.SetCamera(models.Camera{X: 0, Y: 0, Zoom: 1})
	b.Follow("leader-1")
	b.HandleFollowCamera(api.FollowCamera{
		LeaderID: "leader-1",
		Camera:   api.Camera{X: 100, Y: 100, Zoom: 2},
	})

	require.Eventually(t, func() bool {
		return store.Camera() == models.Camera{X: 100, Y: 100, Zoom: 2}
	}, time.Second, time.Millisecond)
}

func TestBroadcaster_AutoExitWhenLeaderLeaves(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, _ := newBroadcaster(tr, Config{})

	var states []State
	b.OnStateChange(func(s State, _ string) { states = append(states, s) })

	b.Follow("leader-1")
	b.HandleLeave("other") // чужой выход ничего не меняет
	state, _ := b.State()
	require.Equal(t, StateFollowing, state)

	b.HandleLeave("leader-1")
	state, leaderID := b.State()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, leaderID)
	assert.Equal(t, []State{StateFollowing, StateIdle}, states)
}

func TestBroadcaster_StopFromLeading(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, _ := newBroadcaster(tr, Config{BroadcastInterval: time.Millisecond})

	b.StartLeading()
	b.Stop()

	state, _ := b.State()
	assert.Equal(t, StateIdle, state)

	// Повторный Stop безопасен
	b.Stop()
}

func TestBroadcaster_FollowWhileLeadingSwitchesMode(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, _ := newBroadcaster(tr, Config{BroadcastInterval: time.Millisecond})

	b.StartLeading()
	b.Follow("leader-1")
	defer b.Stop()

	state, leaderID := b.State()
	assert.Equal(t, StateFollowing, state)
	assert.Equal(t, "leader-1", leaderID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "leading", StateLeading.String())
	assert.Equal(t, "following", StateFollowing.String())
}

func TestBroadcaster_NoFrameAfterModeSwitch(t *testing.T) {
	tr := &fakeTransport{participantID: "self"}
	b, store := newBroadcaster(tr, Config{BroadcastInterval: time.Hour})

	store.SetCamera(models.Camera{X: 10, Y: 20, Zoom: 2})
	b.Follow("leader-1")

	// Тикер лидера мог сработать уже после переключения режима -
	// кадр бывшего ведущего публиковаться не должен
	b.broadcastCamera(context.Background())

	assert.Empty(t, tr.published(), "Following participant must not publish camera frames")
}
