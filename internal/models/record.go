package models

import (
	"bytes"
	"encoding/json"
)

// TypeName дискриминирует типы записей доски.
// Системные типы (page, camera, instance, pointer) - локальное состояние
// viewport'а конкретного участника и никогда не синхронизируются.
type TypeName string

const (
	// TypeShape фигура на канве (прямоугольник, стрелка, рисунок)
	TypeShape TypeName = "shape"
	// TypeNote стикер с текстом
	TypeNote TypeName = "note"
	// TypeDocument метаданные документа доски
	TypeDocument TypeName = "document"
	// TypePage страница доски (системная запись)
	TypePage TypeName = "page"
	// TypeCamera позиция камеры (системная запись)
	TypeCamera TypeName = "camera"
	// TypeInstance состояние инстанса редактора (системная запись)
	TypeInstance TypeName = "instance"
	// TypePointer позиция указателя (системная запись)
	TypePointer TypeName = "pointer"
)

// System возвращает true для системных записей.
// Инвариант слоя синхронизации: системная запись никогда не удаляется
// и не перезаписывается по удаленной инструкции, даже если она
// отсутствует в удаленном снимке.
func (t TypeName) System() bool {
	switch t {
	case TypePage, TypeCamera, TypeInstance, TypePointer:
		return true
	default:
		return false
	}
}

// Content возвращает true для контентных записей - тех, которыми
// полностью владеет слой синхронизации и которые должны сходиться
// между всеми участниками.
func (t TypeName) Content() bool {
	return !t.System()
}

// Record представляет атомарную единицу состояния доски.
// Props непрозрачны для слоя синхронизации - их формат определяет
// canvas-движок. Timestamp и NodeID образуют LWW-метаданные версии:
// при конфликте по одному id побеждает запись с большим Timestamp,
// при равных - с лексикографически большим NodeID.
type Record struct {
	ID        string          `json:"id"`        // уникальный идентификатор записи (UUID)
	TypeName  TypeName        `json:"type_name"` // тип записи
	NodeID    string          `json:"node_id"`   // узел, создавший эту версию
	Props     json.RawMessage `json:"props"`     // непрозрачные свойства записи
	Timestamp int64           `json:"timestamp"` // Lamport timestamp версии
}

// IsNewerThan сравнивает две версии записи по правилу LWW.
// Возвращает true, если r новее other.
func (r *Record) IsNewerThan(other *Record) bool {
	if r.Timestamp > other.Timestamp {
		return true
	}
	if r.Timestamp < other.Timestamp {
		return false
	}
	// Timestamps равны - сравниваем NodeID для детерминизма
	return r.NodeID > other.NodeID
}

// EqualProps возвращает true, если свойства записей байт-идентичны.
// Используется reconciler'ом, чтобы не трогать store лишний раз
// (redundant re-render и повторный захват observer'ом).
func (r *Record) EqualProps(other *Record) bool {
	return r.TypeName == other.TypeName && bytes.Equal(r.Props, other.Props)
}

// Clone создает глубокую копию записи
func (r *Record) Clone() *Record {
	props := make(json.RawMessage, len(r.Props))
	copy(props, r.Props)

	return &Record{
		ID:        r.ID,
		TypeName:  r.TypeName,
		NodeID:    r.NodeID,
		Props:     props,
		Timestamp: r.Timestamp,
	}
}
