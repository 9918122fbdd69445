package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/client/transport"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

const (
	// DefaultFlushInterval окно коалесинга локальных мутаций
	DefaultFlushInterval = 100 * time.Millisecond
	// DefaultSnapshotEvery каждый N-й flush уходит полным снимком:
	// снимок чинит потерянные кадры и реализует at-least-once
	// доставку состояния без ack'ов и очередей повторов
	DefaultSnapshotEvery = 30
)

// ObserverConfig конфигурация observer'а
type ObserverConfig struct {
	// FlushInterval интервал между flush'ами (50-200ms)
	FlushInterval time.Duration
	// SnapshotEvery каждый N-й flush публикуется как полный снимок.
	// 0 отключает снимки (только дифф-батчи).
	SnapshotEvery int
}

// Observer подписывается на пользовательские мутации контентных записей
// store и коалесцирует их в дифф-батчи, которые по таймеру уходят в
// транспорт. Мутации, примененные reconciler'ом (SourceRemote), сюда
// не попадают вовсе - фильтр подписки store и есть главный anti-echo
// механизм.
//
// Отправка fire-and-forget: без ack'ов и ретраев. Потерянный кадр
// не ретранслируется - его исправит очередной полный снимок.
type Observer struct {
	store     *board.Store
	transport transport.Transport
	logger    *slog.Logger
	cfg       ObserverConfig

	pending     map[string]*models.Record // id -> последняя версия за окно
	pendingAdds map[string]struct{}       // id, впервые появившиеся в этом окне
	pendingDels map[string]struct{}       // id, удаленные в этом окне
	flushes     int

	unsubscribe func()
	done        chan struct{}
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
	mu          sync.Mutex
}

// NewObserver создает observer поверх store и транспорта
func NewObserver(store *board.Store, tr transport.Transport, logger *slog.Logger, cfg ObserverConfig) *Observer {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	return &Observer{
		store:       store,
		transport:   tr,
		logger:      logger,
		cfg:         cfg,
		pending:     make(map[string]*models.Record),
		pendingAdds: make(map[string]struct{}),
		pendingDels: make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Start подписывается на store и запускает цикл flush'ей
func (o *Observer) Start() {
	o.startOnce.Do(func() {
		o.unsubscribe = o.store.Listen(board.ListenOptions{
			Scope:  board.ScopeContent,
			Source: models.SourceUser,
		}, o.collect)

		o.wg.Add(1)
		go o.loop()
	})
}

// Stop останавливает observer: отписка от store, остановка таймера.
// Накопленный батч дропается - финальное состояние доедет до пиров
// снимком при следующем подключении. Повторный вызов безопасен.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() {
		if o.unsubscribe != nil {
			o.unsubscribe()
		}
		close(o.done)
		o.wg.Wait()
	})
}

// collect аккумулирует мутации одного батча store в pending-дифф.
// Более поздняя запись по тому же id вытесняет раннюю в пределах окна.
func (o *Observer) collect(batch *models.ChangeBatch) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, record := range batch.Added {
		o.pending[record.ID] = record
		o.pendingAdds[record.ID] = struct{}{}
		delete(o.pendingDels, record.ID)
	}
	for _, record := range batch.Updated {
		o.pending[record.ID] = record
		delete(o.pendingDels, record.ID)
	}
	for _, id := range batch.Removed {
		delete(o.pending, id)
		delete(o.pendingAdds, id)
		o.pendingDels[id] = struct{}{}
	}
}

// loop цикл flush'ей по таймеру
func (o *Observer) loop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Flush()
		case <-o.done:
			return
		}
	}
}

// Flush публикует накопленный дифф (или очередной полный снимок).
// Вызывается таймером, но доступен и напрямую - тесты и teardown
// пользуются этим, чтобы не ждать тика.
func (o *Observer) Flush() {
	o.mu.Lock()
	update := o.takePendingLocked()
	o.flushes++
	snapshotDue := o.cfg.SnapshotEvery > 0 && o.flushes%o.cfg.SnapshotEvery == 0
	o.mu.Unlock()

	ctx := context.Background()

	if snapshotDue {
		snapshot := api.ShapeSnapshot{Records: toPayloads(o.store.AllContent())}
		if err := o.transport.Publish(ctx, snapshot); err != nil {
			o.logger.Warn("failed to publish snapshot", "error", err)
		}
		return
	}

	if update == nil {
		return
	}
	if err := o.transport.Publish(ctx, *update); err != nil {
		o.logger.Warn("failed to publish change batch", "error", err)
	}
}

// takePendingLocked забирает накопленный дифф, очищая буферы.
// Возвращает nil, если дифф пуст. Вызывается под mu.
func (o *Observer) takePendingLocked() *api.ShapeUpdate {
	if len(o.pending) == 0 && len(o.pendingDels) == 0 {
		return nil
	}

	update := &api.ShapeUpdate{}
	for id, record := range o.pending {
		if _, isNew := o.pendingAdds[id]; isNew {
			update.Added = append(update.Added, toPayload(record))
		} else {
			update.Updated = append(update.Updated, toPayload(record))
		}
	}
	for id := range o.pendingDels {
		update.Removed = append(update.Removed, id)
	}

	o.pending = make(map[string]*models.Record)
	o.pendingAdds = make(map[string]struct{})
	o.pendingDels = make(map[string]struct{})

	return update
}
