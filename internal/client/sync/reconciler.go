package sync

import (
	"log/slog"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// Reconciler применяет удаленные батчи к локальному store, гарантируя
// сходимость и отсутствие echo-петли.
//
// Все записи применяются с SourceRemote, поэтому observer (подписанный
// только на SourceUser) их не видит - подавление синхронно и атомарно
// с точки зрения observer'а, так как уведомления store синхронны.
//
// Политика конфликтов: last-write-wins по id записи. Сравнение версий
// по (Timestamp, NodeID) делает применение идемпотентным и независимым
// от порядка получения батчей разных отправителей для непересекающихся
// id; по одному id побеждает более новая версия.
type Reconciler struct {
	store  *board.Store
	logger *slog.Logger
}

// NewReconciler создает reconciler поверх store
func NewReconciler(store *board.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// ApplyBatch применяет удаленный дифф-батч. Best-effort по записям:
// одна битая запись не отменяет остальной батч.
func (r *Reconciler) ApplyBatch(update *api.ShapeUpdate) {
	upserts := make([]api.RecordPayload, 0, len(update.Added)+len(update.Updated))
	upserts = append(upserts, update.Added...)
	upserts = append(upserts, update.Updated...)

	for _, payload := range upserts {
		r.applyUpsert(payload)
	}

	for _, id := range update.Removed {
		r.applyRemove(id)
	}
}

// ApplySnapshot применяет полный снимок контентных записей. Помимо
// upsert'ов вычисляет local-minus-remote по контентным id и удаляет
// локальные записи, отсутствующие в снимке - так доезжает "пир удалил
// фигуру" без явного delete-сообщения. Системные записи в вычислении
// не участвуют.
func (r *Reconciler) ApplySnapshot(snapshot *api.ShapeSnapshot) {
	remoteIDs := make(map[string]struct{}, len(snapshot.Records))

	for _, payload := range snapshot.Records {
		if r.applyUpsert(payload) {
			remoteIDs[payload.ID] = struct{}{}
		}
	}

	for id := range r.store.ContentIDs() {
		if _, present := remoteIDs[id]; !present {
			r.applyRemove(id)
		}
	}
}

// applyUpsert применяет одну удаленную запись. Возвращает true, если
// запись валидна и считается "присутствующей" в удаленном состоянии
// (даже если локальная версия новее и upsert не потребовался).
func (r *Reconciler) applyUpsert(payload api.RecordPayload) bool {
	if payload.ID == "" || payload.TypeName == "" {
		r.logger.Warn("skipping malformed remote record", "id", payload.ID, "type", payload.TypeName)
		return false
	}

	record := fromPayload(payload)

	// Системные записи - локальное состояние viewport'а, слой
	// синхронизации их не трогает ни при каких обстоятельствах
	if record.TypeName.System() {
		r.logger.Warn("skipping remote write to system record", "id", record.ID, "type", record.TypeName)
		return true
	}

	local := r.store.Get(record.ID)
	if local != nil {
		// Локальная версия новее или та же - пропускаем (идемпотентность)
		if !record.IsNewerThan(local) {
			return true
		}
		// Байт-идентичные свойства не переприменяем: меньше лишнего
		// рендера и шума для слушателей store. Но версию принять
		// обязаны: иначе часы не продвинутся и следующая локальная
		// правка проиграет LWW-гонку версии, которую мы уже видели.
		if record.EqualProps(local) {
			r.store.AdoptVersion(record.ID, record.Timestamp, record.NodeID)
			return true
		}
	}

	r.store.Put(models.SourceRemote, record)
	return true
}

// applyRemove удаляет запись по удаленной инструкции.
// Системные записи не удаляются никогда.
func (r *Reconciler) applyRemove(id string) {
	local := r.store.Get(id)
	if local == nil {
		return
	}
	if local.TypeName.System() {
		r.logger.Warn("ignoring remote delete of system record", "id", id, "type", local.TypeName)
		return
	}
	r.store.Remove(models.SourceRemote, id)
}
