package board

import (
	"sync"

	"github.com/iudanet/livedesk/internal/models"
)

// Scope определяет область подписки на мутации store
type Scope string

const (
	// ScopeAll все записи, включая системные
	ScopeAll Scope = "all"
	// ScopeContent только контентные записи (shapes, notes, document)
	ScopeContent Scope = "content"
)

// ListenOptions фильтр подписки на мутации.
// Source == "" означает "мутации любого происхождения".
type ListenOptions struct {
	Scope  Scope
	Source models.Source
}

// listener один подписчик store
type listener struct {
	opts ListenOptions
	fn   func(*models.ChangeBatch)
}

// Store представляет in-memory хранилище всех записей одной доски -
// единственный источник истины для рендера. У store ровно два писателя:
// локальный пользователь (SourceUser) и reconciler (SourceRemote);
// атрибуция источника в каждом батче позволяет observer'у игнорировать
// записи, примененные по удаленной инструкции.
//
// Уведомления слушателей синхронны относительно мутации: к моменту
// возврата из Put/Remove все подписчики уже получили батч.
type Store struct {
	records   map[string]*models.Record
	listeners map[int]*listener
	clock     *Clock
	nextID    int
	mu        sync.RWMutex
}

// NewStore создает пустой store поверх заданных часов
func NewStore(clock *Clock) *Store {
	return &Store{
		records:   make(map[string]*models.Record),
		listeners: make(map[int]*listener),
		clock:     clock,
	}
}

// NodeID возвращает идентификатор локального узла
func (s *Store) NodeID() string {
	return s.clock.NodeID()
}

// Clock возвращает часы store
func (s *Store) Clock() *Clock {
	return s.clock
}

// Get возвращает копию записи по id или nil, если записи нет
func (s *Store) Get(id string) *models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	return record.Clone()
}

// Put создает или обновляет записи. Для SourceUser store сам проставляет
// LWW-метаданные (очередной tick локальных часов); для SourceRemote
// запись обязана принести метаданные с собой, а часы подтягиваются
// через Observe, чтобы последующие локальные правки были новее.
func (s *Store) Put(source models.Source, records ...*models.Record) {
	if len(records) == 0 {
		return
	}

	batch := &models.ChangeBatch{Source: source}

	s.mu.Lock()
	for _, record := range records {
		clone := record.Clone()

		switch source {
		case models.SourceUser:
			clone.Timestamp = s.clock.Tick()
			clone.NodeID = s.clock.NodeID()
		case models.SourceRemote:
			s.clock.Observe(clone.Timestamp)
		}

		if _, exists := s.records[clone.ID]; exists {
			batch.Updated = append(batch.Updated, clone.Clone())
		} else {
			batch.Added = append(batch.Added, clone.Clone())
		}
		s.records[clone.ID] = clone
	}
	s.mu.Unlock()

	s.notify(batch)
}

// AdoptVersion переносит на запись удаленные LWW-метаданные, не меняя
// props и не уведомляя слушателей, и подтягивает часы под удаленный
// timestamp. Нужен reconciler'у для байт-идентичных версий: props
// переприменять незачем, но без принятия версии следующая локальная
// правка получит меньший timestamp и проиграет LWW-гонку на всех пирах.
func (s *Store) AdoptVersion(id string, timestamp int64, nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return
	}
	record.Timestamp = timestamp
	record.NodeID = nodeID
	s.clock.Observe(timestamp)
}

// Remove удаляет записи по id. Несуществующие id игнорируются.
func (s *Store) Remove(source models.Source, ids ...string) {
	if len(ids) == 0 {
		return
	}

	batch := &models.ChangeBatch{Source: source}

	s.mu.Lock()
	for _, id := range ids {
		if _, exists := s.records[id]; !exists {
			continue
		}
		delete(s.records, id)
		batch.Removed = append(batch.Removed, id)
	}
	s.mu.Unlock()

	if batch.Empty() {
		return
	}
	s.notify(batch)
}

// AllContent возвращает копии всех контентных записей
func (s *Store) AllContent() []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Record, 0, len(s.records))
	for _, record := range s.records {
		if record.TypeName.Content() {
			result = append(result, record.Clone())
		}
	}
	return result
}

// ContentIDs возвращает множество id контентных записей.
// Используется reconciler'ом в snapshot-режиме для вычисления
// local-minus-remote.
func (s *Store) ContentIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{})
	for id, record := range s.records {
		if record.TypeName.Content() {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Len возвращает общее количество записей в store
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Listen регистрирует подписчика на мутации store и возвращает функцию
// отписки. Отписка идемпотентна.
func (s *Store) Listen(opts ListenOptions, fn func(*models.ChangeBatch)) func() {
	if opts.Scope == "" {
		opts.Scope = ScopeAll
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = &listener{opts: opts, fn: fn}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// notify синхронно доставляет батч всем подходящим слушателям
func (s *Store) notify(batch *models.ChangeBatch) {
	s.mu.RLock()
	targets := make([]*listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		targets = append(targets, l)
	}
	s.mu.RUnlock()

	for _, l := range targets {
		if l.opts.Source != "" && l.opts.Source != batch.Source {
			continue
		}

		filtered := s.filterScope(batch, l.opts.Scope)
		if filtered == nil {
			continue
		}
		l.fn(filtered)
	}
}

// filterScope сужает батч до области подписки.
// Возвращает nil, если после фильтрации батч пуст.
func (s *Store) filterScope(batch *models.ChangeBatch, scope Scope) *models.ChangeBatch {
	if scope == ScopeAll {
		return batch
	}

	filtered := &models.ChangeBatch{Source: batch.Source}
	for _, record := range batch.Added {
		if record.TypeName.Content() {
			filtered.Added = append(filtered.Added, record)
		}
	}
	for _, record := range batch.Updated {
		if record.TypeName.Content() {
			filtered.Updated = append(filtered.Updated, record)
		}
	}
	// Удаленная запись уже не в store, тип по id не восстановить -
	// полагаемся на то, что системные записи не удаляются вовсе
	filtered.Removed = batch.Removed

	if filtered.Empty() {
		return nil
	}
	return filtered
}
