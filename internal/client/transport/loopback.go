package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/livedesk/pkg/api"
)

// LoopbackHub представляет in-process relay для тестов и локальной
// отладки: несколько транспортов, подключенных к одному hub'у, ведут
// себя как участники одной комнаты. Доставка синхронная, порядок
// сообщений одного отправителя сохраняется тривиально.
//
// Hub повторяет поведение серверного relay: проставляет sender_id,
// не возвращает события отправителю и рассылает roster при
// подключении/отключении участников.
type LoopbackHub struct {
	peers    map[string]*Loopback
	presence map[string]*api.Presence // последнее presence каждого участника
	mu       sync.Mutex
}

// NewLoopbackHub создает пустой hub
func NewLoopbackHub() *LoopbackHub {
	return &LoopbackHub{
		peers:    make(map[string]*Loopback),
		presence: make(map[string]*api.Presence),
	}
}

// Connect подключает нового участника и возвращает его транспорт
func (h *LoopbackHub) Connect(participantID string) *Loopback {
	t := &Loopback{
		hub:           h,
		participantID: participantID,
		subscribers:   make(map[int]func(*api.Envelope)),
		status:        StatusConnected,
	}

	h.mu.Lock()
	h.peers[participantID] = t
	h.mu.Unlock()

	h.broadcastRoster()
	return t
}

// disconnect отключает участника и рассылает обновленный roster
func (h *LoopbackHub) disconnect(participantID string) {
	h.mu.Lock()
	delete(h.peers, participantID)
	delete(h.presence, participantID)
	h.mu.Unlock()

	h.broadcastRoster()
}

// relay доставляет конверт всем участникам, кроме отправителя
func (h *LoopbackHub) relay(env *api.Envelope) {
	// Запоминаем presence для roster'а
	if env.Type == api.EventPresence {
		if event, err := env.Decode(); err == nil {
			if p, ok := event.(api.Presence); ok {
				h.mu.Lock()
				h.presence[env.SenderID] = &p
				h.mu.Unlock()
			}
		}
	}

	for _, peer := range h.snapshotPeers() {
		if peer.participantID == env.SenderID {
			continue
		}
		peer.deliver(env)
	}
}

// broadcastRoster рассылает текущий список участников всем
func (h *LoopbackHub) broadcastRoster() {
	h.mu.Lock()
	roster := api.Roster{}
	for id := range h.peers {
		participant := api.Participant{ID: id}
		if p, ok := h.presence[id]; ok {
			participant.DisplayName = p.DisplayName
			participant.Color = p.Color
		}
		roster.Participants = append(roster.Participants, participant)
	}
	h.mu.Unlock()

	env, err := api.NewEnvelope("", roster)
	if err != nil {
		return
	}
	for _, peer := range h.snapshotPeers() {
		peer.deliver(env)
	}
}

func (h *LoopbackHub) snapshotPeers() []*Loopback {
	h.mu.Lock()
	defer h.mu.Unlock()

	peers := make([]*Loopback, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	return peers
}

// Loopback транспорт одного участника в LoopbackHub
type Loopback struct {
	hub           *LoopbackHub
	participantID string
	subscribers   map[int]func(*api.Envelope)
	statusSubs    map[int]func(Status)
	nextSub       int
	status        Status
	closed        bool
	mu            sync.Mutex
}

var _ Transport = (*Loopback)(nil)

// Publish отправляет событие остальным участникам hub'а
func (t *Loopback) Publish(_ context.Context, event api.Event) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport closed")
	}
	t.mu.Unlock()

	env, err := api.NewEnvelope(t.participantID, event)
	if err != nil {
		return fmt.Errorf("failed to build envelope: %w", err)
	}

	t.hub.relay(env)
	return nil
}

// Subscribe регистрирует обработчик входящих конвертов
func (t *Loopback) Subscribe(fn func(*api.Envelope)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subscribers, id)
			t.mu.Unlock()
		})
	}
}

// Status возвращает текущее состояние соединения
func (t *Loopback) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// OnStatusChange регистрирует обработчик смены состояния
func (t *Loopback) OnStatusChange(fn func(Status)) func() {
	t.mu.Lock()
	if t.statusSubs == nil {
		t.statusSubs = make(map[int]func(Status))
	}
	id := t.nextSub
	t.nextSub++
	t.statusSubs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.statusSubs, id)
			t.mu.Unlock()
		})
	}
}

// ParticipantID возвращает идентификатор участника
func (t *Loopback) ParticipantID() string {
	return t.participantID
}

// Close отключает участника от hub'а. Повторный вызов безопасен.
func (t *Loopback) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.status = StatusDisconnected
	subs := t.snapshotStatusSubs()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(StatusDisconnected)
	}

	t.hub.disconnect(t.participantID)
	return nil
}

// deliver доставляет конверт всем подписчикам этого транспорта
func (t *Loopback) deliver(env *api.Envelope) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	fns := make([]func(*api.Envelope), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(env)
	}
}

func (t *Loopback) snapshotStatusSubs() []func(Status) {
	fns := make([]func(Status), 0, len(t.statusSubs))
	for _, fn := range t.statusSubs {
		fns = append(fns, fn)
	}
	return fns
}
