package board

import (
	"encoding/json"

	"github.com/iudanet/livedesk/internal/models"
)

// CameraRecordID фиксированный id системной записи камеры.
// Камера - локальное состояние viewport'а, в store она живет как
// обычная запись, но с системным типом, поэтому никогда не покидает
// пределы этого участника.
const CameraRecordID = "camera"

// Camera возвращает текущую позицию камеры viewport'а.
// Если запись камеры еще не создана, возвращает камеру по умолчанию.
func (s *Store) Camera() models.Camera {
	record := s.Get(CameraRecordID)
	if record == nil {
		return models.Camera{Zoom: 1}
	}

	var camera models.Camera
	if err := json.Unmarshal(record.Props, &camera); err != nil {
		return models.Camera{Zoom: 1}
	}
	return camera
}

// SetCamera обновляет позицию камеры viewport'а
func (s *Store) SetCamera(camera models.Camera) {
	props, err := json.Marshal(camera)
	if err != nil {
		return
	}

	s.Put(models.SourceUser, &models.Record{
		ID:       CameraRecordID,
		TypeName: models.TypeCamera,
		Props:    props,
	})
}
