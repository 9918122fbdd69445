package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/livedesk/internal/client/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "livedesk.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func testAuthData() *storage.AuthData {
	return &storage.AuthData{
		Username:     "testuser",
		UserID:       "user-123",
		Email:        "test@example.com",
		NodeID:       "node-abc",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		PublicSalt:   "c2FsdA==",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func TestStorage_SaveGetAuth(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	auth := testAuthData()
	require.NoError(t, s.SaveAuth(ctx, auth))

	got, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.Username, got.Username)
	assert.Equal(t, auth.NodeID, got.NodeID)
	assert.Equal(t, auth.AccessToken, got.AccessToken)
	assert.True(t, auth.ExpiresAt.Equal(got.ExpiresAt))
}

func TestStorage_GetAuthNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetAuth(context.Background())
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStorage_SaveAuthOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := testAuthData()
	require.NoError(t, s.SaveAuth(ctx, first))

	second := testAuthData()
	second.AccessToken = "new-access-token"
	require.NoError(t, s.SaveAuth(ctx, second))

	got, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access-token", got.AccessToken)
}

func TestStorage_DeleteAuth(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAuth(ctx, testAuthData()))
	require.NoError(t, s.DeleteAuth(ctx))

	_, err := s.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	// Повторное удаление - ошибка "не найдено"
	assert.ErrorIs(t, s.DeleteAuth(ctx), storage.ErrAuthNotFound)
}

func TestStorage_IsAuthenticated(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Нет данных
	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Живой токен
	require.NoError(t, s.SaveAuth(ctx, testAuthData()))
	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Истекший токен
	expired := testAuthData()
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.SaveAuth(ctx, expired))
	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
