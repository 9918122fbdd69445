package api

// SubscriptionStatus статус подписки пользователя
type SubscriptionStatus string

const (
	// SubscriptionFree бесплатный план
	SubscriptionFree SubscriptionStatus = "free"
	// SubscriptionPro платный план
	SubscriptionPro SubscriptionStatus = "pro"
)

// SubscriptionResponse представляет ответ со статусом подписки.
// Лимиты плана сервер отдает вместе со статусом, чтобы клиент
// не хардкодил их у себя.
type SubscriptionResponse struct {
	Status           SubscriptionStatus `json:"status"`
	Plan             string             `json:"plan,omitempty"`               // pro-monthly | pro-yearly
	CurrentPeriodEnd string             `json:"current_period_end,omitempty"` // RFC3339
	Limits           PlanLimits         `json:"limits"`
}

// PlanLimits лимиты тарифного плана.
// Нулевое значение означает "без ограничений".
type PlanLimits struct {
	AIGenerationsPerDay  int `json:"ai_generations_per_day"`
	CollaboratorsPerRoom int `json:"collaborators_per_room"`
	NotesPerRoom         int `json:"notes_per_room"`
}
