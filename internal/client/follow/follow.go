// Package follow реализует режим следования: ведущий транслирует свой
// viewport, ведомые плавно подтягивают к нему собственную камеру.
package follow

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// State - режим участника в механике следования.
type State int

const (
	// StateIdle - участник не участвует в следовании.
	StateIdle State = iota
	// StateLeading - участник транслирует свою камеру.
	StateLeading
	// StateFollowing - камера участника привязана к ведущему.
	StateFollowing
)

func (s State) String() string {
	switch s {
	case StateLeading:
		return "leading"
	case StateFollowing:
		return "following"
	default:
		return "idle"
	}
}

const (
	// DefaultBroadcastInterval - период трансляции камеры ведущим.
	DefaultBroadcastInterval = 100 * time.Millisecond
	// DefaultTweenDuration - длительность подтягивания камеры ведомого.
	DefaultTweenDuration = 200 * time.Millisecond
	// defaultTweenStep - шаг анимации, примерно кадр UI.
	defaultTweenStep = 16 * time.Millisecond
)

// Config настраивает broadcaster.
type Config struct {
	BroadcastInterval time.Duration
	// TweenDuration - длительность анимации камеры ведомого.
	// Ноль или меньше - камера применяется мгновенно (удобно в тестах).
	TweenDuration time.Duration
	TweenStep     time.Duration
}

// Broadcaster - машина состояний следования поверх store и транспорта.
// Переходы: idle -> leading (StartLeading), idle -> following (Follow),
// любое -> idle (Stop, уход ведущего из комнаты).
type Broadcaster struct {
	store     *board.Store
	transport transport.Transport
	logger    *slog.Logger
	cfg       Config

	mu            sync.Mutex
	state         State
	leaderID      string
	lastBroadcast models.Camera
	hasBroadcast  bool
	onState       []func(State, string)

	// Жизненный цикл тикера ведущего и твина ведомого.
	cancelLoop context.CancelFunc
	wg         sync.WaitGroup
	tweenSeq   int
}

// NewBroadcaster создает broadcaster в состоянии idle
func NewBroadcaster(store *board.Store, tr transport.Transport, logger *slog.Logger, cfg Config) *Broadcaster {
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = DefaultBroadcastInterval
	}
	if cfg.TweenStep <= 0 {
		cfg.TweenStep = defaultTweenStep
	}

	return &Broadcaster{
		store:     store,
		transport: tr,
		logger:    logger,
		cfg:       cfg,
	}
}

// State возвращает текущее состояние и id ведущего (пустой, если
// состояние не following)
func (b *Broadcaster) State() (State, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.leaderID
}

// OnStateChange регистрирует колбэк на смену состояния
func (b *Broadcaster) OnStateChange(fn func(State, string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onState = append(b.onState, fn)
}

// StartLeading переводит участника в режим ведущего и запускает
// периодическую трансляцию камеры. Если участник кого-то вел или за
// кем-то следовал, прежний режим завершается.
func (b *Broadcaster) StartLeading() {
	b.mu.Lock()
	b.stopLoopLocked()
	b.state = StateLeading
	b.leaderID = ""
	b.hasBroadcast = false

	ctx, cancel := context.WithCancel(context.Background())
	b.cancelLoop = cancel
	b.wg.Add(1)
	b.mu.Unlock()

	go b.leadLoop(ctx)
	b.notifyState()
}

// Follow переводит участника в режим следования за leaderID
func (b *Broadcaster) Follow(leaderID string) {
	b.mu.Lock()
	b.stopLoopLocked()
	b.state = StateFollowing
	b.leaderID = leaderID
	b.mu.Unlock()

	b.notifyState()
}

// Stop возвращает участника в idle из любого режима
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if b.state == StateIdle {
		b.mu.Unlock()
		return
	}
	b.stopLoopLocked()
	b.state = StateIdle
	b.leaderID = ""
	b.tweenSeq++ // обрывает активный твин
	b.mu.Unlock()

	b.notifyState()
	b.wg.Wait()
}

// HandleLeave обрабатывает уход участника из комнаты: если это наш
// ведущий, следование завершается автоматически.
func (b *Broadcaster) HandleLeave(participantID string) {
	b.mu.Lock()
	isLeader := b.state == StateFollowing && b.leaderID == participantID
	b.mu.Unlock()

	if isLeader {
		b.logger.Info("leader left the room, stopping follow", "leader_id", participantID)
		b.Stop()
	}
}

// HandleFollowCamera применяет кадр камеры ведущего. Кадры чужих
// ведущих и кадры в других состояниях игнорируются.
func (b *Broadcaster) HandleFollowCamera(ev api.FollowCamera) {
	b.mu.Lock()
	if b.state != StateFollowing || b.leaderID != ev.LeaderID {
		b.mu.Unlock()
		return
	}
	b.tweenSeq++
	seq := b.tweenSeq
	b.mu.Unlock()

	target := models.Camera{X: ev.Camera.X, Y: ev.Camera.Y, Zoom: ev.Camera.Zoom}
	if b.cfg.TweenDuration <= 0 {
		b.store.SetCamera(target)
		return
	}

	b.wg.Add(1)
	go b.tween(seq, b.store.Camera(), target)
}

func (b *Broadcaster) leadLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.BroadcastInterval)
	defer ticker.Stop()

	// Первый кадр уходит сразу, чтобы ведомые не ждали целый период
	b.broadcastCamera(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.broadcastCamera(ctx)
		}
	}
}

func (b *Broadcaster) broadcastCamera(ctx context.Context) {
	camera := b.store.Camera()

	b.mu.Lock()
	// Stop/Follow могли переключить режим, пока тикер будил горутину -
	// кадр уже бывшего ведущего публиковать нельзя
	if b.state != StateLeading {
		b.mu.Unlock()
		return
	}
	if b.hasBroadcast && camera == b.lastBroadcast {
		b.mu.Unlock()
		return
	}
	b.lastBroadcast = camera
	b.hasBroadcast = true
	b.mu.Unlock()

	event := api.FollowCamera{
		LeaderID: b.transport.ParticipantID(),
		Camera:   api.Camera{X: camera.X, Y: camera.Y, Zoom: camera.Zoom},
	}
	if err := b.transport.Publish(ctx, event); err != nil {
		b.logger.Warn("failed to broadcast camera", "error", err)
	}
}

// tween плавно ведет камеру из from в to с ease-out затуханием.
// Новый кадр ведущего (или Stop) увеличивает tweenSeq и обрывает
// устаревшую анимацию.
func (b *Broadcaster) tween(seq int, from, to models.Camera) {
	defer b.wg.Done()

	steps := int(b.cfg.TweenDuration / b.cfg.TweenStep)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		time.Sleep(b.cfg.TweenStep)

		b.mu.Lock()
		stale := b.tweenSeq != seq
		b.mu.Unlock()
		if stale {
			return
		}

		t := easeOutCubic(float64(i) / float64(steps))
		b.store.SetCamera(models.Camera{
			X:    from.X + (to.X-from.X)*t,
			Y:    from.Y + (to.Y-from.Y)*t,
			Zoom: from.Zoom + (to.Zoom-from.Zoom)*t,
		})
	}
}

// stopLoopLocked останавливает тикер ведущего. Вызывается под mu.
func (b *Broadcaster) stopLoopLocked() {
	if b.cancelLoop != nil {
		b.cancelLoop()
		b.cancelLoop = nil
	}
}

func (b *Broadcaster) notifyState() {
	b.mu.Lock()
	state, leaderID := b.state, b.leaderID
	fns := append([]func(State, string){}, b.onState...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(state, leaderID)
	}
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}
