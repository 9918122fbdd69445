package models

// Point точка в координатах канвы
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Camera позиция и масштаб viewport'а
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// PresenceEntry представляет эфемерное состояние одного участника.
// Не персистится: создается при подключении пира, обновляется на каждое
// throttled движение курсора, исчезает вместе с пиром.
type PresenceEntry struct {
	ParticipantID string `json:"participant_id"` // стабильный идентификатор соединения
	Cursor        *Point `json:"cursor"`         // nil = курсор вне канвы
	DisplayName   string `json:"display_name"`
	Color         string `json:"color"`
}

// Clone создает копию presence-записи
func (p *PresenceEntry) Clone() *PresenceEntry {
	clone := *p
	if p.Cursor != nil {
		cursor := *p.Cursor
		clone.Cursor = &cursor
	}
	return &clone
}
