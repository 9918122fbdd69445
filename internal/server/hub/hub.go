package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/internal/server/handlers"
	"github.com/iudanet/livedesk/internal/server/storage"
	"github.com/iudanet/livedesk/internal/subscription"
	"github.com/iudanet/livedesk/internal/validation"
	"github.com/iudanet/livedesk/pkg/api"
)

const (
	// ServerSenderID идентификатор отправителя для серверных событий
	// (roster, replay снимка). Не совпадает ни с одним participant id.
	ServerSenderID = "server"

	// DefaultSnapshotInterval период сохранения снимков комнат в БД
	DefaultSnapshotInterval = 5 * time.Second

	// sendBufferSize глубина очереди исходящих кадров одного соединения.
	// Медленный получатель теряет кадры, периодический snapshot их чинит.
	sendBufferSize = 64

	writeWait = 10 * time.Second
)

// channelKey имя Redis pub/sub канала комнаты
func channelKey(roomID string) string {
	return "room:" + roomID
}

// membersKey имя Redis hash с участниками комнаты
func membersKey(roomID string) string {
	return "room:" + roomID + ":members"
}

// Config конфигурация hub'а
type Config struct {
	// SnapshotInterval период сохранения снимков комнат (0 = default)
	SnapshotInterval time.Duration
}

// Hub relay-сервер комнат. Входящие кадры публикуются в Redis канал
// комнаты, подписка на канал раздает их всем локальным соединениям,
// кроме отправителя. Redis дает fanout между несколькими инстансами
// сервера; состав комнаты хранится в Redis hash.
type Hub struct {
	logger *slog.Logger
	rdb    *redis.Client
	boards storage.BoardSnapshotStorage
	users  storage.UserStorage
	subs   storage.SubscriptionStorage
	cfg    Config

	upgrader websocket.Upgrader

	rooms  map[string]*room
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// room состояние одной комнаты на этом инстансе
type room struct {
	id     string
	conns  map[string]*conn
	pubsub *redis.PubSub

	// pendingSnapshot последний полученный shape_snapshot, ждет
	// сохранения в БД персистером
	pendingSnapshot json.RawMessage
	dirty           bool
	mu              sync.Mutex
}

// conn одно websocket соединение участника
type conn struct {
	participantID string
	ws            *websocket.Conn
	send          chan []byte
	closeOnce     sync.Once
}

// closeSend закрывает очередь исходящих кадров ровно один раз
func (c *conn) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// New создает hub и запускает персистер снимков
func New(
	logger *slog.Logger,
	rdb *redis.Client,
	boards storage.BoardSnapshotStorage,
	users storage.UserStorage,
	subs storage.SubscriptionStorage,
	cfg Config,
) *Hub {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		logger: logger,
		rdb:    rdb,
		boards: boards,
		users:  users,
		subs:   subs,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Браузерный клиент ходит с другого origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms:  make(map[string]*room),
		ctx:    ctx,
		cancel: cancel,
	}

	h.wg.Add(1)
	go h.snapshotLoop()

	return h
}

// ServeRoom обрабатывает GET /api/v1/rooms/{room}/ws
// Ожидает, что auth middleware уже положил user_id/username в контекст.
func (h *Hub) ServeRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roomID := mux.Vars(r)["room"]
	if err := validation.ValidateRoomID(roomID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, ok := handlers.GetUserID(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	username, _ := handlers.GetUsername(ctx)

	participantID := r.Header.Get("X-Participant-ID")
	if participantID == "" {
		participantID = uuid.New().String()
	}

	// Лимит участников проверяется по плану присоединяющегося
	if err := h.checkCollaboratorCap(ctx, roomID, userID, participantID); err != nil {
		var capErr *capExceededError
		if errors.As(err, &capErr) {
			h.logger.WarnContext(ctx, "room is full for this plan",
				slog.String("room", roomID),
				slog.String("user_id", userID))
			http.Error(w, capErr.Error(), http.StatusForbidden)
			return
		}
		h.logger.ErrorContext(ctx, "failed to check collaborator cap", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &conn{
		participantID: participantID,
		ws:            ws,
		send:          make(chan []byte, sendBufferSize),
	}

	rm, err := h.joinRoom(roomID, c, username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to join room", slog.Any("error", err))
		_ = ws.Close()
		return
	}

	h.logger.InfoContext(ctx, "participant joined room",
		slog.String("room", roomID),
		slog.String("participant_id", participantID),
		slog.String("username", username))

	h.replaySnapshot(c, roomID)

	go c.writePump()
	h.readPump(rm, c)

	h.leaveRoom(rm, c)
	h.logger.Info("participant left room",
		slog.String("room", roomID),
		slog.String("participant_id", participantID))
}

// capExceededError комната заполнена для плана пользователя
type capExceededError struct {
	limit int
}

func (e *capExceededError) Error() string {
	return fmt.Sprintf("room collaborator limit reached (%d), upgrade to pro for unlimited rooms", e.limit)
}

// checkCollaboratorCap проверяет лимит участников комнаты для плана
// присоединяющегося пользователя. Повторное подключение того же
// участника лимит не расходует.
func (h *Hub) checkCollaboratorCap(ctx context.Context, roomID, userID, participantID string) error {
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	sub, err := h.subs.GetSubscription(ctx, user.Email)
	if err != nil && !errors.Is(err, storage.ErrSubscriptionNotFound) {
		return fmt.Errorf("failed to get subscription: %w", err)
	}

	limits := subscription.LimitsFor(subscription.EffectiveStatus(sub, time.Now()))
	if limits.CollaboratorsPerRoom <= 0 {
		return nil
	}

	members, err := h.rdb.HKeys(ctx, membersKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list room members: %w", err)
	}

	count := 0
	for _, id := range members {
		if id != participantID {
			count++
		}
	}
	if count >= limits.CollaboratorsPerRoom {
		return &capExceededError{limit: limits.CollaboratorsPerRoom}
	}
	return nil
}

// joinRoom регистрирует соединение, публикует участника в Redis и
// рассылает обновленный roster
func (h *Hub) joinRoom(roomID string, c *conn, displayName string) (*room, error) {
	h.mu.Lock()
	rm, ok := h.rooms[roomID]
	if !ok {
		rm = &room{
			id:    roomID,
			conns: make(map[string]*conn),
		}
		rm.pubsub = h.rdb.Subscribe(h.ctx, channelKey(roomID))
		h.rooms[roomID] = rm

		h.wg.Add(1)
		go h.relayLoop(rm)
	}
	h.mu.Unlock()

	rm.mu.Lock()
	rm.conns[c.participantID] = c
	rm.mu.Unlock()

	participant := api.Participant{
		ID:          c.participantID,
		DisplayName: displayName,
	}
	data, err := json.Marshal(participant)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal participant: %w", err)
	}
	if err := h.rdb.HSet(h.ctx, membersKey(roomID), c.participantID, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to register member: %w", err)
	}

	if err := h.broadcastRoster(roomID); err != nil {
		h.logger.Warn("failed to broadcast roster", "room", roomID, "error", err)
	}

	return rm, nil
}

// leaveRoom снимает регистрацию соединения и рассылает roster
func (h *Hub) leaveRoom(rm *room, c *conn) {
	rm.mu.Lock()
	// Соединение могло быть вытеснено переподключением с тем же id
	if cur, ok := rm.conns[c.participantID]; ok && cur == c {
		delete(rm.conns, c.participantID)
	}
	empty := len(rm.conns) == 0
	rm.mu.Unlock()

	c.closeSend()

	if err := h.rdb.HDel(h.ctx, membersKey(rm.id), c.participantID).Err(); err != nil {
		h.logger.Warn("failed to remove member", "room", rm.id, "error", err)
	}

	if err := h.broadcastRoster(rm.id); err != nil {
		h.logger.Warn("failed to broadcast roster", "room", rm.id, "error", err)
	}

	if empty {
		h.closeRoom(rm)
	}
}

// closeRoom останавливает relay комнаты без локальных соединений
// и сохраняет несохраненный снимок
func (h *Hub) closeRoom(rm *room) {
	h.mu.Lock()
	if cur, ok := h.rooms[rm.id]; !ok || cur != rm {
		h.mu.Unlock()
		return
	}
	rm.mu.Lock()
	if len(rm.conns) > 0 {
		rm.mu.Unlock()
		h.mu.Unlock()
		return
	}
	rm.mu.Unlock()
	delete(h.rooms, rm.id)
	h.mu.Unlock()

	_ = rm.pubsub.Close()
	h.persistRoom(rm)
}

// replaySnapshot отправляет новому соединению последний сохраненный
// снимок комнаты
func (h *Hub) replaySnapshot(c *conn, roomID string) {
	snapshot, err := h.boards.GetSnapshot(h.ctx, roomID)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			h.logger.Warn("failed to load room snapshot", "room", roomID, "error", err)
		}
		return
	}

	env := api.Envelope{
		Type:     api.EventShapeSnapshot,
		SenderID: ServerSenderID,
		Payload:  snapshot.Payload,
	}
	data, err := json.Marshal(&env)
	if err != nil {
		h.logger.Warn("failed to marshal snapshot envelope", "error", err)
		return
	}

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn("failed to replay snapshot", "room", roomID, "error", err)
	}
}

// broadcastRoster публикует текущий состав комнаты в ее канал
func (h *Hub) broadcastRoster(roomID string) error {
	members, err := h.rdb.HGetAll(h.ctx, membersKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to read members: %w", err)
	}

	roster := api.Roster{}
	for _, raw := range members {
		var p api.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			h.logger.Warn("skipping malformed member entry", "room", roomID, "error", err)
			continue
		}
		roster.Participants = append(roster.Participants, p)
	}
	// Стабильный порядок для детерминированных diff'ов на клиенте
	sort.Slice(roster.Participants, func(i, j int) bool {
		return roster.Participants[i].ID < roster.Participants[j].ID
	})

	env, err := api.NewEnvelope(ServerSenderID, roster)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal roster envelope: %w", err)
	}

	if err := h.rdb.Publish(h.ctx, channelKey(roomID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish roster: %w", err)
	}
	return nil
}

// readPump читает кадры соединения и публикует их в Redis канал комнаты.
// Блокирует до разрыва соединения.
func (h *Hub) readPump(rm *room, c *conn) {
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var env api.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Warn("dropping malformed frame",
				"room", rm.id,
				"participant_id", c.participantID,
				"error", err)
			continue
		}

		// Sender проставляется сервером: клиенту нельзя доверять
		// чужой идентификатор
		env.SenderID = c.participantID
		out, err := json.Marshal(&env)
		if err != nil {
			continue
		}

		if env.Type == api.EventShapeSnapshot {
			rm.mu.Lock()
			rm.pendingSnapshot = env.Payload
			rm.dirty = true
			rm.mu.Unlock()
		}

		if err := h.rdb.Publish(h.ctx, channelKey(rm.id), out).Err(); err != nil {
			h.logger.Warn("failed to publish frame", "room", rm.id, "error", err)
		}
	}
}

// relayLoop раздает сообщения Redis канала локальным соединениям,
// пропуская отправителя
func (h *Hub) relayLoop(rm *room) {
	defer h.wg.Done()

	ch := rm.pubsub.Channel()
	for msg := range ch {
		var env api.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.logger.Warn("dropping malformed relay message", "room", rm.id, "error", err)
			continue
		}

		data := []byte(msg.Payload)

		rm.mu.Lock()
		for id, c := range rm.conns {
			if id == env.SenderID {
				continue
			}
			select {
			case c.send <- data:
			default:
				// Очередь переполнена: кадр теряется, снимок починит
				h.logger.Warn("dropping frame for slow consumer",
					"room", rm.id,
					"participant_id", id)
			}
		}
		rm.mu.Unlock()
	}
}

// writePump пишет кадры из очереди соединения в websocket
func (c *conn) writePump() {
	for data := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// snapshotLoop периодически сохраняет изменившиеся снимки комнат в БД
func (h *Hub) snapshotLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.mu.Lock()
			rooms := make([]*room, 0, len(h.rooms))
			for _, rm := range h.rooms {
				rooms = append(rooms, rm)
			}
			h.mu.Unlock()

			for _, rm := range rooms {
				h.persistRoom(rm)
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// persistRoom сохраняет отложенный снимок комнаты, если он менялся
func (h *Hub) persistRoom(rm *room) {
	rm.mu.Lock()
	if !rm.dirty {
		rm.mu.Unlock()
		return
	}
	payload := rm.pendingSnapshot
	rm.dirty = false
	rm.mu.Unlock()

	snapshot := &models.BoardSnapshot{
		RoomID:    rm.id,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	if err := h.boards.SaveSnapshot(context.Background(), snapshot); err != nil {
		h.logger.Error("failed to persist room snapshot", "room", rm.id, "error", err)
		rm.mu.Lock()
		rm.dirty = true
		rm.mu.Unlock()
		return
	}
	h.logger.Info("room snapshot persisted", "room", rm.id)
}

// Close останавливает hub: закрывает комнаты и сохраняет снимки.
// Активные websocket соединения закрываются на стороне клиентов.
func (h *Hub) Close() error {
	h.cancel()

	h.mu.Lock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, rm := range h.rooms {
		rooms = append(rooms, rm)
	}
	h.rooms = make(map[string]*room)
	h.mu.Unlock()

	for _, rm := range rooms {
		_ = rm.pubsub.Close()

		rm.mu.Lock()
		conns := make([]*conn, 0, len(rm.conns))
		for _, c := range rm.conns {
			conns = append(conns, c)
		}
		rm.conns = make(map[string]*conn)
		rm.mu.Unlock()

		for _, c := range conns {
			_ = c.ws.Close()
			c.closeSend()
		}

		h.persistRoom(rm)
	}

	h.wg.Wait()
	return nil
}
