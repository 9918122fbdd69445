package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/livedesk/internal/server/handlers"
	"github.com/iudanet/livedesk/pkg/api"
)

// AuthMiddleware проверяет JWT access token и кладет user_id/username
// в контекст запроса. Защищенные обработчики и websocket-комнаты читают
// идентичность только отсюда.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, errMsg := bearerToken(r)
			if errMsg != "" {
				logger.Warn("rejected unauthenticated request",
					"path", r.URL.Path,
					"reason", errMsg)
				writeUnauthorized(w, errMsg)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, tokenString)
			if err != nil {
				logger.Warn("rejected invalid token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.UsernameKey, claims.Username)

			logger.Debug("user authenticated",
				"user_id", claims.UserID,
				"username", claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken извлекает токен из заголовка Authorization.
// Пустая ошибка означает успех.
func bearerToken(r *http.Request) (token, errMsg string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing token"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "invalid token format"
	}

	return parts[1], ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   message,
		Message: http.StatusText(http.StatusUnauthorized),
	})
}
