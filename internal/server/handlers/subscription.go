package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/livedesk/internal/server/storage"
	"github.com/iudanet/livedesk/internal/subscription"
	"github.com/iudanet/livedesk/pkg/api"
)

// SubscriptionHandler отдает статус подписки и лимиты плана
type SubscriptionHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	subStorage  storage.SubscriptionStorage
}

// NewSubscriptionHandler создает новый handler подписки
func NewSubscriptionHandler(logger *slog.Logger, userStorage storage.UserStorage, subStorage storage.SubscriptionStorage) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:      logger,
		userStorage: userStorage,
		subStorage:  subStorage,
	}
}

// GetSubscription обрабатывает GET /api/v1/subscription
// Возвращает статус подписки аутентифицированного пользователя.
// Отсутствие записи в subscriptions означает free план.
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sub, err := h.subStorage.GetSubscription(ctx, user.Email)
	if err != nil && !errors.Is(err, storage.ErrSubscriptionNotFound) {
		h.logger.ErrorContext(ctx, "failed to get subscription", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := subscription.EffectiveStatus(sub, time.Now())

	resp := api.SubscriptionResponse{
		Status: status,
		Limits: subscription.LimitsFor(status),
	}
	if status == api.SubscriptionPro && sub != nil {
		resp.Plan = sub.Plan
		if sub.CurrentPeriodEnd != nil {
			resp.CurrentPeriodEnd = sub.CurrentPeriodEnd.Format(time.RFC3339)
		}
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// sendJSON отправляет JSON ответ
func (h *SubscriptionHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *SubscriptionHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   message,
		Message: http.StatusText(statusCode),
	}
	h.sendJSON(w, resp, statusCode)
}
