package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/membergate/subscription-gatekeeper/internal/services/status"
)

// Маршруты редиректов гейта.
const (
	// LandingPath — публичный лендинг с кнопкой запроса приглашения.
	LandingPath = "/"
	// SubscribePath — страница оформления подписки.
	SubscribePath = "/member/subscriptions"
)

// Gate принимает решение о доступе по текущему пользователю.
type Gate interface {
	CheckAccess(ctx context.Context, userID int64) status.Decision
}

// AccessGateMiddleware возвращает middleware, пропускающий запрос только
// при решении Continue. Помеченный исход гейта разбирается явным switch:
// Unauthenticated уводит на лендинг, GoToSubscribe — на оформление,
// Error — на главную с сообщением в query-параметре; представление
// исходного запроса при этом не строится.
func AccessGateMiddleware(log *slog.Logger, gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())

			decision := gate.CheckAccess(r.Context(), userID)
			switch decision.Kind {
			case status.DecisionUnauthenticated:
				http.Redirect(w, r, LandingPath, http.StatusFound)
			case status.DecisionGoToSubscribe:
				http.Redirect(w, r, SubscribePath, http.StatusFound)
			case status.DecisionError:
				log.Error("access check failed",
					slog.Int64("user_id", userID),
					slog.String("message", decision.Message))
				http.Redirect(w, r, LandingPath+"?message="+url.QueryEscape(decision.Message), http.StatusFound)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
