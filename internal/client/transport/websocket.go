package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/livedesk/pkg/api"
)

const (
	// writeTimeout максимальное время записи одного кадра
	writeTimeout = 10 * time.Second
	// reconnectBaseDelay начальная задержка переподключения
	reconnectBaseDelay = 500 * time.Millisecond
	// reconnectMaxDelay потолок экспоненциального backoff
	reconnectMaxDelay = 15 * time.Second
)

// WebsocketConfig конфигурация websocket-транспорта
type WebsocketConfig struct {
	// URL адрес relay-сервера, например ws://localhost:8080/api/v1/rooms/demo/ws
	URL string
	// AccessToken JWT access token для авторизации подключения
	AccessToken string
	// ParticipantID стабильный идентификатор участника в комнате
	ParticipantID string
}

// Websocket транспорт поверх gorilla/websocket с автоматическим
// переподключением. Один reader-горутина диспатчит входящие конверты
// подписчикам синхронно, поэтому порядок сообщений одного отправителя
// сохраняется.
type Websocket struct {
	cfg    WebsocketConfig
	logger *slog.Logger

	conn       *websocket.Conn
	subs       map[int]func(*api.Envelope)
	statusSubs map[int]func(Status)
	nextSub    int
	status     Status
	closed     bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex

	// writeMu сериализует записи в соединение: gorilla/websocket
	// допускает не больше одного писателя, а Publish зовут сразу
	// несколько горутин сессии (observer, presence, follow)
	writeMu sync.Mutex
}

var _ Transport = (*Websocket)(nil)

// NewWebsocket создает транспорт и запускает цикл подключения.
// Возвращается сразу: публикации до установления соединения дропаются.
func NewWebsocket(cfg WebsocketConfig, logger *slog.Logger) *Websocket {
	ctx, cancel := context.WithCancel(context.Background())

	t := &Websocket{
		cfg:        cfg,
		logger:     logger,
		subs:       make(map[int]func(*api.Envelope)),
		statusSubs: make(map[int]func(Status)),
		status:     StatusInitial,
		cancel:     cancel,
	}

	t.wg.Add(1)
	go t.run(ctx)

	return t
}

// run цикл подключения с экспоненциальным backoff
func (t *Websocket) run(ctx context.Context) {
	defer t.wg.Done()

	delay := reconnectBaseDelay
	first := true

	for {
		if ctx.Err() != nil {
			return
		}

		if first {
			t.setStatus(StatusConnecting)
		} else {
			t.setStatus(StatusReconnecting)
		}

		conn, err := t.dial(ctx)
		if err != nil {
			t.logger.Warn("failed to connect to relay", "url", t.cfg.URL, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = min(delay*2, reconnectMaxDelay)
			first = false
			continue
		}

		delay = reconnectBaseDelay
		first = false

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		t.setStatus(StatusConnected)
		t.logger.Info("connected to relay", "url", t.cfg.URL)

		// readLoop блокирует до разрыва соединения
		t.readLoop(ctx, conn)

		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		t.logger.Warn("relay connection lost, reconnecting")
	}
}

func (t *Websocket) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if t.cfg.AccessToken != "" {
		header.Set("Authorization", "Bearer "+t.cfg.AccessToken)
	}
	header.Set("X-Participant-ID", t.cfg.ParticipantID)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, t.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return conn, nil
}

// readLoop читает кадры и диспатчит конверты подписчикам
func (t *Websocket) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			return
		}

		var env api.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		for _, fn := range t.snapshotSubs() {
			fn(&env)
		}
	}
}

// Publish отправляет событие в комнату. Best-effort: при отсутствии
// соединения событие дропается (следующий flush/snapshot восстановит
// состояние), ошибки записи логируются.
func (t *Websocket) Publish(_ context.Context, event api.Event) error {
	t.mu.Lock()
	conn := t.conn
	status := t.status
	t.mu.Unlock()

	if conn == nil || status != StatusConnected {
		t.logger.Debug("dropping publish: not connected", "event", event.EventType())
		return nil
	}

	env, err := api.NewEnvelope(t.cfg.ParticipantID, event)
	if err != nil {
		return fmt.Errorf("failed to build envelope: %w", err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.logger.Warn("failed to publish event", "event", event.EventType(), "error", err)
		return nil
	}
	return nil
}

// Subscribe регистрирует обработчик входящих конвертов
func (t *Websocket) Subscribe(fn func(*api.Envelope)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Status возвращает текущее состояние соединения
func (t *Websocket) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// OnStatusChange регистрирует обработчик смены состояния соединения
func (t *Websocket) OnStatusChange(fn func(Status)) func() {
	t.mu.Lock()
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
func (t *Websocket) ParticipantID() string {
	return t.cfg.ParticipantID
}

// Close закрывает транспорт и дожидается остановки reader'а.
// Повторный вызов безопасен.
func (t *Websocket) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	t.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	t.wg.Wait()
	t.setStatus(StatusDisconnected)
	return nil
}

func (t *Websocket) setStatus(status Status) {
	t.mu.Lock()
	if t.status == status {
		t.mu.Unlock()
		return
	}
	t.status = status
	fns := make([]func(Status), 0, len(t.statusSubs))
	for _, fn := range t.statusSubs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(status)
	}
}

func (t *Websocket) snapshotSubs() []func(*api.Envelope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fns := make([]func(*api.Envelope), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	return fns
}
