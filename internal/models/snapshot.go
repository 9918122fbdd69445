package models

import (
	"encoding/json"
	"time"
)

// BoardSnapshot последний известный серверу снимок контента комнаты.
// Payload хранит сериализованный api.ShapeSnapshot и отдается новым
// участникам при подключении.
type BoardSnapshot struct {
	RoomID    string          `json:"room_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}
