package models

import (
	"encoding/json"
	"fmt"
)

// NoteColor допустимые цвета стикеров
const (
	NoteColorYellow = "yellow"
	NoteColorBlue   = "blue"
	NoteColorGreen  = "green"
	NoteColorPink   = "pink"
)

// NoteProps свойства записи типа note.
// Это единственный формат Props, который ядро собирает само
// (AI-генерация стикеров); все остальные Props приходят от
// canvas-движка и не интерпретируются.
type NoteProps struct {
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Marshal сериализует свойства стикера в Props записи
func (n *NoteProps) Marshal() (json.RawMessage, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal note props: %w", err)
	}
	return data, nil
}

// UnmarshalNoteProps разбирает Props записи типа note
func UnmarshalNoteProps(props json.RawMessage) (*NoteProps, error) {
	var n NoteProps
	if err := json.Unmarshal(props, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal note props: %w", err)
	}
	return &n, nil
}
