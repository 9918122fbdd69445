// Package ai раскладывает сгенерированные заметки на доску.
// Сам запрос к модели выполняет сервер; клиент лишь превращает
// полученный список строк в записи-стикеры.
package ai

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/livedesk/internal/board"
	"github.com/iudanet/livedesk/internal/models"
)

// Параметры сетки стикеров.
const (
	gridColumns = 3
	noteWidth   = 200.0
	noteHeight  = 200.0
	noteGap     = 20.0
)

var notePalette = []string{
	models.NoteColorYellow,
	models.NoteColorBlue,
	models.NoteColorGreen,
	models.NoteColorPink,
}

// PlaceNotes создает по стикеру на каждую строку texts и выкладывает
// их сеткой в три колонки вокруг центра текущего viewport'а.
// Существующие записи не затрагиваются. Возвращает id созданных
// стикеров в порядке texts.
func PlaceNotes(store *board.Store, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	camera := store.Camera()
	rows := (len(texts) + gridColumns - 1) / gridColumns
	cols := len(texts)
	if cols > gridColumns {
		cols = gridColumns
	}

	// Сетка центрируется на координатах камеры
	gridWidth := float64(cols)*noteWidth + float64(cols-1)*noteGap
	gridHeight := float64(rows)*noteHeight + float64(rows-1)*noteGap
	originX := camera.X - gridWidth/2
	originY := camera.Y - gridHeight/2

	ids := make([]string, 0, len(texts))
	records := make([]*models.Record, 0, len(texts))

	for i, text := range texts {
		col := i % gridColumns
		row := i / gridColumns

		props := models.NoteProps{
			Text:  text,
			Color: notePalette[i%len(notePalette)],
			X:     originX + float64(col)*(noteWidth+noteGap),
			Y:     originY + float64(row)*(noteHeight+noteGap),
		}
		raw, err := props.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to build note record: %w", err)
		}

		id := uuid.New().String()
		ids = append(ids, id)
		records = append(records, &models.Record{
			ID:       id,
			TypeName: models.TypeNote,
			Props:    raw,
		})
	}

	store.Put(models.SourceUser, records...)
	return ids, nil
}
