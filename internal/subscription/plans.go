package subscription

import (
	"time"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/pkg/api"
)

// Лимиты бесплатного плана. Нулевое значение в PlanLimits означает
// "без ограничений", поэтому pro-план отдает пустую структуру.
const (
	FreeAIGenerationsPerDay  = 3
	FreeCollaboratorsPerRoom = 2
	FreeNotesPerRoom         = 10
)

// LimitsFor возвращает лимиты тарифного плана по статусу подписки
func LimitsFor(status api.SubscriptionStatus) api.PlanLimits {
	if status == api.SubscriptionPro {
		return api.PlanLimits{}
	}
	return api.PlanLimits{
		AIGenerationsPerDay:  FreeAIGenerationsPerDay,
		CollaboratorsPerRoom: FreeCollaboratorsPerRoom,
		NotesPerRoom:         FreeNotesPerRoom,
	}
}

// EffectiveStatus возвращает действующий статус подписки с учетом
// окончания оплаченного периода. Отсутствующая подписка трактуется
// как free: запись в subscriptions создается только при оплате.
func EffectiveStatus(sub *models.Subscription, now time.Time) api.SubscriptionStatus {
	if sub == nil {
		return api.SubscriptionFree
	}
	if sub.Status != string(api.SubscriptionPro) {
		return api.SubscriptionFree
	}
	if sub.CurrentPeriodEnd != nil && now.After(*sub.CurrentPeriodEnd) {
		return api.SubscriptionFree
	}
	return api.SubscriptionPro
}
