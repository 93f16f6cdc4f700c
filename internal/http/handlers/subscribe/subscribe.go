// Package subscribe отдаёт данные страницы оформления подписки:
// сумму к оплате и признак наличия customer у процессора.
package subscribe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/http/response"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
)

// Directory возвращает идентификатор customer процессора за пользователем.
type Directory interface {
	GetCustomerRef(ctx context.Context, userID int64) (string, error)
}

// New возвращает обработчик GET /member/subscriptions.
// Пользователь с сохранённым customer платит без повторного ввода карты.
//
// @Summary Данные страницы оформления подписки
// @Tags member
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /member/subscriptions [get]
func New(log *slog.Logger, directory Directory, planAmount int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscribe.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := middlewarectx.UserIDFromContext(r.Context())

		customerRef, err := directory.GetCustomerRef(r.Context(), userID)
		if err != nil {
			log.Error("failed to get customer ref", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load subscription page"))
			return
		}

		render.JSON(w, r, response.OKWithData(map[string]any{
			"amount_due":       planAmount,
			"currency":         "usd",
			"has_customer_ref": customerRef != "",
		}))
	}
}
