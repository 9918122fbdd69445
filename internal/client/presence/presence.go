// Package presence ведет список участников комнаты и транслирует
// положение курсора локального участника остальным.
package presence

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// DefaultCursorThrottle ограничивает частоту публикаций курсора.
// Движения мыши приходят чаще, чем их имеет смысл рассылать.
const DefaultCursorThrottle = 50 * time.Millisecond

// Config настраивает трекер присутствия.
type Config struct {
	DisplayName string
	Color       string
	// CursorThrottle - минимальный интервал между публикациями курсора.
	// Ноль означает DefaultCursorThrottle.
	CursorThrottle time.Duration
}

// Tracker хранит состав комнаты (по roster-кадрам сервера) и последние
// presence-записи пиров. Roster - единственный источник правды о
// входах и выходах: трекер лишь диффит соседние кадры и дергает
// колбэки по стабильному participant id.
type Tracker struct {
	transport transport.Transport
	logger    *slog.Logger
	cfg       Config

	mu       sync.Mutex
	roster   map[string]api.Participant
	peers    map[string]*models.PresenceEntry
	onJoin   []func(api.Participant)
	onLeave  []func(api.Participant)
	lastSent time.Time
	now      func() time.Time // подменяется в тестах
}

// NewTracker создает трекер поверх транспорта
func NewTracker(tr transport.Transport, logger *slog.Logger, cfg Config) *Tracker {
	if cfg.CursorThrottle == 0 {
		cfg.CursorThrottle = DefaultCursorThrottle
	}

	return &Tracker{
		transport: tr,
		logger:    logger,
		cfg:       cfg,
		roster:    make(map[string]api.Participant),
		peers:     make(map[string]*models.PresenceEntry),
		now:       time.Now,
	}
}

// OnJoin регистрирует колбэк на появление участника в комнате.
// Локальный участник в колбэки не попадает.
func (t *Tracker) OnJoin(fn func(api.Participant)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onJoin = append(t.onJoin, fn)
}

// OnLeave регистрирует колбэк на выход участника
func (t *Tracker) OnLeave(fn func(api.Participant)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLeave = append(t.onLeave, fn)
}

// HandleRoster применяет roster-кадр сервера: диффит его с предыдущим
// составом и вызывает onJoin/onLeave для разницы. Кадр авторитетен -
// повторный кадр с тем же составом не порождает событий.
func (t *Tracker) HandleRoster(roster api.Roster) {
	t.mu.Lock()

	next := make(map[string]api.Participant, len(roster.Participants))
	for _, p := range roster.Participants {
		next[p.ID] = p
	}

	var joined, left []api.Participant
	selfID := t.transport.ParticipantID()
	for id, p := range next {
		if id == selfID {
			continue
		}
		if _, known := t.roster[id]; !known {
			joined = append(joined, p)
		}
	}
	for id, p := range t.roster {
		if id == selfID {
			continue
		}
		if _, still := next[id]; !still {
			left = append(left, p)
			delete(t.peers, id)
		}
	}

	t.roster = next
	joinFns := append([]func(api.Participant){}, t.onJoin...)
	leaveFns := append([]func(api.Participant){}, t.onLeave...)
	t.mu.Unlock()

	// Детерминированный порядок событий при пачке входов/выходов
	sort.Slice(joined, func(i, j int) bool { return joined[i].ID < joined[j].ID })
	sort.Slice(left, func(i, j int) bool { return left[i].ID < left[j].ID })

	for _, p := range joined {
		for _, fn := range joinFns {
			fn(p)
		}
	}
	for _, p := range left {
		for _, fn := range leaveFns {
			fn(p)
		}
	}
}

// HandlePresence запоминает presence-кадр пира. Курсор nil означает,
// что участник увел указатель с доски.
func (t *Tracker) HandlePresence(senderID string, p api.Presence) {
	if senderID == "" || senderID == t.transport.ParticipantID() {
		return
	}

	entry := &models.PresenceEntry{
		ParticipantID: senderID,
		DisplayName:   p.DisplayName,
		Color:         p.Color,
	}
	if p.Cursor != nil {
		entry.Cursor = &models.Point{X: p.Cursor.X, Y: p.Cursor.Y}
	}

	t.mu.Lock()
	t.peers[senderID] = entry
	t.mu.Unlock()
}

// Peers возвращает снимок presence-записей остальных участников
func (t *Tracker) Peers() []*models.PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*models.PresenceEntry, 0, len(t.peers))
	for _, entry := range t.peers {
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// Participants возвращает текущий состав комнаты, включая локального
// участника
func (t *Tracker) Participants() []api.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]api.Participant, 0, len(t.roster))
	for _, p := range t.roster {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MoveCursor публикует положение курсора локального участника.
// Публикации троттлятся: кадры чаще CursorThrottle отбрасываются,
// очередное движение после паузы уйдет немедленно.
func (t *Tracker) MoveCursor(ctx context.Context, point models.Point) {
	t.mu.Lock()
	if t.now().Sub(t.lastSent) < t.cfg.CursorThrottle {
		t.mu.Unlock()
		return
	}
	t.lastSent = t.now()
	t.mu.Unlock()

	t.publish(ctx, &api.Point{X: point.X, Y: point.Y})
}

// ClearCursor сообщает пирам, что указатель увели с доски.
// Не троттлится: это редкое и значимое событие.
func (t *Tracker) ClearCursor(ctx context.Context) {
	t.publish(ctx, nil)
}

func (t *Tracker) publish(ctx context.Context, cursor *api.Point) {
	event := api.Presence{
		Cursor:      cursor,
		DisplayName: t.cfg.DisplayName,
		Color:       t.cfg.Color,
	}
	if err := t.transport.Publish(ctx, event); err != nil {
		t.logger.Warn("failed to publish presence", "error", err)
	}
}
