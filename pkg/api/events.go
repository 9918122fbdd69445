package api

import (
	"encoding/json"
	"fmt"
)

// EventType определяет закрытое множество типов broadcast событий комнаты.
// Каждое событие декодируется строго по своему типу (никаких произвольных
// payload'ов - неизвестный тип отбрасывается получателем с warning).
type EventType string

const (
	// EventShapeUpdate дифф-батч изменений контентных записей доски
	EventShapeUpdate EventType = "shape_update"
	// EventShapeSnapshot полный снимок контентных записей доски
	EventShapeSnapshot EventType = "shape_snapshot"
	// EventPresence эфемерное состояние участника (курсор, имя, цвет)
	EventPresence EventType = "presence"
	// EventFollowCamera позиция камеры ведущего в follow-режиме
	EventFollowCamera EventType = "follow_camera"
	// EventRoster список участников комнаты (рассылается сервером)
	EventRoster EventType = "roster"
)

// Event общий интерфейс для всех типов событий комнаты
type Event interface {
	EventType() EventType
}

// Envelope представляет конверт broadcast события.
// SenderID - стабильный идентификатор соединения отправителя,
// проставляется relay-сервером.
type Envelope struct {
	Type     EventType       `json:"type"`
	SenderID string          `json:"sender_id"`
	Payload  json.RawMessage `json:"payload"`
}

// RecordPayload представляет одну запись доски в wire-формате
type RecordPayload struct {
	ID        string          `json:"id"`         // уникальный идентификатор записи
	TypeName  string          `json:"type_name"`  // тип записи (shape, note, page, ...)
	Props     json.RawMessage `json:"props"`      // непрозрачные свойства (геометрия, стиль, текст)
	NodeID    string          `json:"node_id"`   // идентификатор узла, создавшего эту версию
	Timestamp int64           `json:"timestamp"` // Lamport timestamp версии
}

// ShapeUpdate представляет дифф-батч изменений записей
type ShapeUpdate struct {
	Added   []RecordPayload `json:"added"`
	Updated []RecordPayload `json:"updated"`
	Removed []string        `json:"removed"`
}

// ShapeSnapshot представляет полный снимок контентных записей.
// Отсутствие записи в снимке означает, что она была удалена.
type ShapeSnapshot struct {
	Records []RecordPayload `json:"records"`
}

// Point точка на экране в координатах канвы
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Presence представляет эфемерное состояние участника.
// Cursor == nil означает, что курсор покинул канву.
type Presence struct {
	Cursor      *Point `json:"cursor"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// Camera позиция и масштаб viewport'а
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// FollowCamera представляет broadcast камеры ведущего
type FollowCamera struct {
	LeaderID string `json:"leader_id"`
	Camera   Camera `json:"camera"`
}

// Participant участник комнаты в составе roster события
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
}

// Roster текущий список участников комнаты
type Roster struct {
	Participants []Participant `json:"participants"`
}

func (ShapeUpdate) EventType() EventType   { return EventShapeUpdate }
func (ShapeSnapshot) EventType() EventType { return EventShapeSnapshot }
func (Presence) EventType() EventType      { return EventPresence }
func (FollowCamera) EventType() EventType  { return EventFollowCamera }
func (Roster) EventType() EventType        { return EventRoster }

// NewEnvelope упаковывает событие в конверт для отправки
func NewEnvelope(senderID string, event Event) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &Envelope{
		Type:     event.EventType(),
		SenderID: senderID,
		Payload:  payload,
	}, nil
}

// Decode распаковывает payload конверта в конкретный тип события.
// Неизвестный тип события - ошибка: получатель логирует и отбрасывает конверт.
func (e *Envelope) Decode() (Event, error) {
	switch e.Type {
	case EventShapeUpdate:
		var ev ShapeUpdate
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode shape_update: %w", err)
		}
		return ev, nil
	case EventShapeSnapshot:
		var ev ShapeSnapshot
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode shape_snapshot: %w", err)
		}
		return ev, nil
	case EventPresence:
		var ev Presence
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode presence: %w", err)
		}
		return ev, nil
	case EventFollowCamera:
		var ev FollowCamera
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode follow_camera: %w", err)
		}
		return ev, nil
	case EventRoster:
		var ev Roster
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode roster: %w", err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}
