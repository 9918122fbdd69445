package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/models"
	"github.com/iudanet/livedesk/internal/server/storage"
	"github.com/iudanet/livedesk/pkg/api"
)

// mockSubscriptionStorage is a mock implementation of SubscriptionStorage for testing
type mockSubscriptionStorage struct {
	subs     map[string]*models.Subscription // email -> Subscription
	getError error
}

func (m *mockSubscriptionStorage) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	m.subs[sub.UserEmail] = sub
	return nil
}

func (m *mockSubscriptionStorage) GetSubscription(ctx context.Context, email string) (*models.Subscription, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	sub, ok := m.subs[email]
	if !ok {
		return nil, storage.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (m *mockSubscriptionStorage) DeleteSubscription(ctx context.Context, email string) error {
	if _, ok := m.subs[email]; !ok {
		return storage.ErrSubscriptionNotFound
	}
	delete(m.subs, email)
	return nil
}

func authedRequest(method, path string, userID string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestSubscriptionHandler_FreeByDefault(t *testing.T) {
	logger := setupTestLogger()
	userStorage := &mockUserStorage{users: map[string]*models.User{
		"alice": {ID: "user-1", Username: "alice", Email: "alice@example.com"},
	}}
	subStorage := &mockSubscriptionStorage{subs: make(map[string]*models.Subscription)}

	handler := NewSubscriptionHandler(logger, userStorage, subStorage)

	w := httptest.NewRecorder()
	handler.GetSubscription(w, authedRequest(http.MethodGet, "/api/v1/subscription", "user-1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, api.SubscriptionFree, resp.Status)
	assert.Empty(t, resp.Plan)
	assert.Equal(t, 3, resp.Limits.AIGenerationsPerDay)
	assert.Equal(t, 2, resp.Limits.CollaboratorsPerRoom)
	assert.Equal(t, 10, resp.Limits.NotesPerRoom)
}

func TestSubscriptionHandler_ActivePro(t *testing.T) {
	logger := setupTestLogger()
	userStorage := &mockUserStorage{users: map[string]*models.User{
		"alice": {ID: "user-1", Username: "alice", Email: "alice@example.com"},
	}}
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	subStorage := &mockSubscriptionStorage{subs: map[string]*models.Subscription{
		"alice@example.com": {
			UserEmail:        "alice@example.com",
			Status:           "pro",
			Plan:             "pro-monthly",
			CurrentPeriodEnd: &periodEnd,
		},
	}}

	handler := NewSubscriptionHandler(logger, userStorage, subStorage)

	w := httptest.NewRecorder()
	handler.GetSubscription(w, authedRequest(http.MethodGet, "/api/v1/subscription", "user-1"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, api.SubscriptionPro, resp.Status)
	assert.Equal(t, "pro-monthly", resp.Plan)
	assert.NotEmpty(t, resp.CurrentPeriodEnd)
	assert.Equal(t, api.PlanLimits{}, resp.Limits, "pro plan has no limits")
}

func TestSubscriptionHandler_ExpiredProIsFree(t *testing.T) {
	logger := setupTestLogger()
	userStorage := &mockUserStorage{users: map[string]*models.User{
		"alice": {ID: "user-1", Username: "alice", Email: "alice@example.com"},
	}}
	periodEnd := time.Now().Add(-time.Hour)
	subStorage := &mockSubscriptionStorage{subs: map[string]*models.Subscription{
		"alice@example.com": {
			UserEmail:        "alice@example.com",
			Status:           "pro",
			Plan:             "pro-monthly",
			CurrentPeriodEnd: &periodEnd,
		},
	}}

	handler := NewSubscriptionHandler(logger, userStorage, subStorage)

	w := httptest.NewRecorder()
	handler.GetSubscription(w, authedRequest(http.MethodGet, "/api/v1/subscription", "user-1"))

	var resp api.SubscriptionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, api.SubscriptionFree, resp.Status)
	assert.Empty(t, resp.Plan, "expired plan is not reported")
}

func TestSubscriptionHandler_Unauthorized(t *testing.T) {
	logger := setupTestLogger()
	userStorage := &mockUserStorage{users: make(map[string]*models.User)}
	subStorage := &mockSubscriptionStorage{subs: make(map[string]*models.Subscription)}

	handler := NewSubscriptionHandler(logger, userStorage, subStorage)

	// Запрос без user_id в контексте (не прошел auth middleware)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)
	w := httptest.NewRecorder()
	handler.GetSubscription(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubscriptionHandler_UserLookupError(t *testing.T) {
	logger := setupTestLogger()
	userStorage := &mockUserStorage{users: make(map[string]*models.User)}
	subStorage := &mockSubscriptionStorage{subs: make(map[string]*models.Subscription)}

	handler := NewSubscriptionHandler(logger, userStorage, subStorage)

	w := httptest.NewRecorder()
	handler.GetSubscription(w, authedRequest(http.MethodGet, "/api/v1/subscription", "ghost"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
