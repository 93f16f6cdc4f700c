// Package middlewarectx содержит HTTP middleware гейткипера: разбор JWT,
// гейт проверки подписки и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/membergate/subscription-gatekeeper/internal/lib/jwt"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ идентификатора пользователя в контексте
	UserID Key = "user_id"
	// Email — ключ email пользователя в контексте
	Email Key = "email"
)

// AuthMiddleware возвращает HTTP middleware, который разбирает JWT из
// заголовка Authorization и кладёт идентификатор пользователя в контекст.
//
// Запрос без валидного токена не отклоняется здесь: решение о редиректе
// принимает гейт доступа, для него отсутствие пользователя — исход
// Unauthenticated, а не ошибка.
func AuthMiddleware(parser jwt.Parser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AuthMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserID, claims.UserID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext возвращает идентификатор пользователя из контекста
// запроса; 0, если пользователь не аутентифицирован.
func UserIDFromContext(ctx context.Context) int64 {
	id, ok := ctx.Value(UserID).(int64)
	if !ok {
		return 0
	}
	return id
}

// EmailFromContext возвращает email пользователя из контекста запроса.
func EmailFromContext(ctx context.Context) string {
	email, ok := ctx.Value(Email).(string)
	if !ok {
		return ""
	}
	return email
}
