// Package session собирает клиентскую часть комнаты воедино: store,
// транспорт, синхронизацию, присутствие и режим следования.
package session

import (
	"log/slog"
	"sync"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/follow"
	"github.com/iudanet/livedesk/internal/client/presence"
	boardsync "github.com/iudanet/livedesk/internal/client/sync"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/pkg/api"
)

// Config настраивает сессию комнаты.
type Config struct {
	DisplayName string
	Color       string

	Observer boardsync.ObserverConfig
	Presence presence.Config
	Follow   follow.Config
}

// Session связывает store комнаты с транспортом: наружу уходят
// пользовательские мутации и presence, внутрь применяются кадры пиров.
// Одна сессия - одна комната; повторное использование не предусмотрено.
type Session struct {
	store      *board.Store
	transport  transport.Transport
	logger     *slog.Logger
	observer   *boardsync.Observer
	reconciler *boardsync.Reconciler
	presence   *presence.Tracker
	follow     *follow.Broadcaster

	unsubscribe func()
	closeOnce   sync.Once
}

// New создает и запускает сессию поверх подключенного транспорта
func New(store *board.Store, tr transport.Transport, logger *slog.Logger, cfg Config) *Session {
	if cfg.Presence.DisplayName == "" {
		cfg.Presence.DisplayName = cfg.DisplayName
	}
	if cfg.Presence.Color == "" {
		cfg.Presence.Color = cfg.Color
	}

	s := &Session{
		store:      store,
		transport:  tr,
		logger:     logger,
		observer:   boardsync.NewObserver(store, tr, logger, cfg.Observer),
		reconciler: boardsync.NewReconciler(store, logger),
		presence:   presence.NewTracker(tr, logger, cfg.Presence),
		follow:     follow.NewBroadcaster(store, tr, logger, cfg.Follow),
	}

	// Уход ведущего завершает следование
	s.presence.OnLeave(func(p api.Participant) {
		s.follow.HandleLeave(p.ID)
	})

	s.unsubscribe = tr.Subscribe(s.dispatch)
	s.observer.Start()

	return s
}

// Store возвращает store комнаты
func (s *Session) Store() *board.Store { return s.store }

// Presence возвращает трекер присутствия
func (s *Session) Presence() *presence.Tracker { return s.presence }

// Follow возвращает broadcaster режима следования
func (s *Session) Follow() *follow.Broadcaster { return s.follow }

// Transport возвращает транспорт сессии
func (s *Session) Transport() transport.Transport { return s.transport }

// Flush немедленно публикует накопленные мутации, не дожидаясь таймера
func (s *Session) Flush() { s.observer.Flush() }

// dispatch разбирает конверт и направляет событие нужному модулю.
// Неизвестный тип события логируется и отбрасывается.
func (s *Session) dispatch(env *api.Envelope) {
	event, err := env.Decode()
	if err != nil {
		s.logger.Warn("dropping malformed envelope",
			"type", env.Type,
			"sender_id", env.SenderID,
			"error", err,
		)
		return
	}

	switch e := event.(type) {
	case api.ShapeUpdate:
		s.reconciler.ApplyBatch(&e)
	case api.ShapeSnapshot:
		s.reconciler.ApplySnapshot(&e)
	case api.Presence:
		s.presence.HandlePresence(env.SenderID, e)
	case api.FollowCamera:
		s.follow.HandleFollowCamera(e)
	case api.Roster:
		s.presence.HandleRoster(e)
	}
}

// Close завершает сессию: останавливает observer и следование,
// отписывается от транспорта и закрывает его. Повторные вызовы
// безопасны.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.observer.Stop()
		s.follow.Stop()
		s.unsubscribe()
		err = s.transport.Close()
	})
	return err
}
