package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/livedesk/internal/client/api"
	"github.com/iudanet/livedesk/internal/client/storage"
	"github.com/iudanet/livedesk/internal/crypto"
	"github.com/iudanet/livedesk/internal/validation"
	pkgapi "github.com/iudanet/livedesk/pkg/api"
)

// service предоставляет функции авторизации
type service struct {
	apiClient *api.Client
	authStore storage.AuthStorage
	logger    *slog.Logger
}

var _ Service = (*service)(nil)

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, authStore storage.AuthStorage, logger *slog.Logger) Service {
	return &service{
		apiClient: apiClient,
		authStore: authStore,
		logger:    logger,
	}
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	UserID     string // UUID пользователя
	Username   string // username
	Email      string // email, к которому привязана подписка
	PublicSalt string // public salt (base64)
}

// Register регистрирует нового пользователя
func (s *service) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	// Валидация входных данных
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Генерируем публичную соль
	publicSaltBase64, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	// 2. Деривируем auth_key из пароля
	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, publicSaltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Хешируем auth_key для отправки на сервер
	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash auth key: %w", err)
	}

	// 4. Отправляем запрос на регистрацию
	req := pkgapi.RegisterRequest{
		Username:    username,
		Email:       email,
		AuthKeyHash: authKeyHash,
		PublicSalt:  publicSaltBase64,
	}

	resp, err := s.apiClient.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return &RegisterResult{
		UserID:     resp.UserID,
		Username:   username,
		Email:      email,
		PublicSalt: publicSaltBase64,
	}, nil
}

// Login выполняет аутентификацию и сохраняет сессию локально
func (s *service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Получаем public_salt с сервера
	saltResp, err := s.apiClient.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}

	// 2. Деривируем auth_key из пароля
	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, saltResp.PublicSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Хешируем auth_key
	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash auth key: %w", err)
	}

	// 4. Отправляем запрос на логин
	req := pkgapi.LoginRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
	}

	resp, err := s.apiClient.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	// 5. Получаем или генерируем NodeID устройства
	nodeID, err := s.getOrCreateNodeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create node ID: %w", err)
	}

	// 6. Сохраняем сессию
	auth := &storage.AuthData{
		Username:     username,
		NodeID:       nodeID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		PublicSalt:   saltResp.PublicSalt,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return auth, nil
}

// RefreshSession обменивает refresh token на новую пару токенов
func (s *service) RefreshSession(ctx context.Context) error {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return fmt.Errorf("failed to save refreshed session: %w", err)
	}

	return nil
}

// Session возвращает текущую сохраненную сессию
func (s *service) Session(ctx context.Context) (*storage.AuthData, error) {
	return s.authStore.GetAuth(ctx)
}

// IsAuthenticated проверяет валидность сохраненной сессии
func (s *service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.authStore.IsAuthenticated(ctx)
}

// Logout выполняет выход из системы.
// Локальная сессия удаляется всегда, даже если сервер недоступен.
func (s *service) Logout(ctx context.Context) error {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		s.logger.Debug("no auth data found during logout", "error", err)
	} else {
		if logoutErr := s.apiClient.Logout(ctx, auth.AccessToken); logoutErr != nil {
			s.logger.Warn("failed to logout on server", "error", logoutErr)
		}
	}

	if err := s.authStore.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	return nil
}

// getOrCreateNodeID возвращает существующий NodeID устройства или
// создает новый. NodeID переживает перелогины: это tiebreak для
// last-write-wins, и его стабильность на устройстве важна.
func (s *service) getOrCreateNodeID(ctx context.Context) (string, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return uuid.New().String(), nil
		}
		return "", fmt.Errorf("failed to get auth data: %w", err)
	}

	if auth.NodeID != "" {
		return auth.NodeID, nil
	}

	return uuid.New().String(), nil
}
