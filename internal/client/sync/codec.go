package sync

import (
	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// toPayload конвертирует запись store в wire-формат
func toPayload(record *models.Record) api.RecordPayload {
	return api.RecordPayload{
		ID:        record.ID,
		TypeName:  string(record.TypeName),
		Props:     record.Props,
		NodeID:    record.NodeID,
		Timestamp: record.Timestamp,
	}
}

func toPayloads(records []*models.Record) []api.RecordPayload {
	if len(records) == 0 {
		return nil
	}
	payloads := make([]api.RecordPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, toPayload(record))
	}
	return payloads
}

// fromPayload конвертирует wire-формат в запись store
func fromPayload(payload api.RecordPayload) *models.Record {
	return &models.Record{
		ID:        payload.ID,
		TypeName:  models.TypeName(payload.TypeName),
		Props:     payload.Props,
		NodeID:    payload.NodeID,
		Timestamp: payload.Timestamp,
	}
}
