package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/livedesk/internal/server/storage"
	"github.com/iudanet/livedesk/internal/subscription"
	"github.com/iudanet/livedesk/pkg/api"
)

const (
	// defaultNoteCount количество стикеров, если клиент не указал
	defaultNoteCount = 5
	// maxNoteCount потолок одного запроса генерации
	maxNoteCount = 10
	// usageDayFormat формат ключа дня для счетчика генераций
	usageDayFormat = "2006-01-02"
)

// NotesGenerator определяет интерфейс генерации идей для стикеров
type NotesGenerator interface {
	GenerateNotes(ctx context.Context, topic string, count int) ([]string, error)
}

// AIHandler обрабатывает запросы генерации стикеров
type AIHandler struct {
	logger      *slog.Logger
	generator   NotesGenerator
	userStorage storage.UserStorage
	subStorage  storage.SubscriptionStorage
	usage       storage.AIUsageStorage
}

// NewAIHandler создает новый handler AI генерации
func NewAIHandler(
	logger *slog.Logger,
	generator NotesGenerator,
	userStorage storage.UserStorage,
	subStorage storage.SubscriptionStorage,
	usage storage.AIUsageStorage,
) *AIHandler {
	return &AIHandler{
		logger:      logger,
		generator:   generator,
		userStorage: userStorage,
		subStorage:  subStorage,
		usage:       usage,
	}
}

// GenerateNotes обрабатывает POST /api/v1/ai/notes
// Генерирует идеи стикеров по теме. Free план ограничен дневным
// лимитом генераций; сервер возвращает либо полный набор, либо ошибку.
func (h *AIHandler) GenerateNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.GenerateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode generate request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		h.sendError(w, "topic is required", http.StatusBadRequest)
		return
	}
	if req.Count == 0 {
		req.Count = defaultNoteCount
	}
	if req.Count < 1 || req.Count > maxNoteCount {
		h.sendError(w, "count must be between 1 and 10", http.StatusBadRequest)
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

	// Дневной лимит только для free плана
	now := time.Now()
	status := subscription.EffectiveStatus(sub, now)
	limits := subscription.LimitsFor(status)
	day := now.Format(usageDayFormat)

	if limits.AIGenerationsPerDay > 0 {
		used, err := h.usage.GetAIUsage(ctx, userID, day)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to get ai usage", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if used >= limits.AIGenerationsPerDay {
			h.logger.WarnContext(ctx, "ai generation limit reached",
				slog.String("user_id", userID),
				slog.Int("used", used))
			h.sendError(w, "daily AI generation limit reached", http.StatusTooManyRequests)
			return
		}
	}

	notes, err := h.generator.GenerateNotes(ctx, req.Topic, req.Count)
	if err != nil {
		h.logger.ErrorContext(ctx, "notes generation failed",
			slog.String("topic", req.Topic),
			slog.Any("error", err))
		h.sendError(w, "failed to generate notes", http.StatusBadGateway)
		return
	}

	// Счетчик инкрементируется только после успешной генерации
	if _, err := h.usage.IncrementAIUsage(ctx, userID, day); err != nil {
		h.logger.WarnContext(ctx, "failed to increment ai usage", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "notes generated",
		slog.String("user_id", userID),
		slog.Int("count", len(notes)))

	h.sendJSON(w, api.GenerateNotesResponse{Notes: notes}, http.StatusOK)
}

// sendJSON отправляет JSON ответ
func (h *AIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *AIHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   message,
		Message: http.StatusText(statusCode),
	}
	h.sendJSON(w, resp, statusCode)
}
