// Package transactions отдаёт страницу истории транзакций пользователя.
package transactions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/http/response"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
	"github.com/membergate/subscription-gatekeeper/internal/models"
	"github.com/membergate/subscription-gatekeeper/internal/services/history"
)

// Lister возвращает страницу истории транзакций пользователя.
type Lister interface {
	List(ctx context.Context, userID int64, direction history.Direction, transactionID string) (*models.HistoryPage, error)
}

// New возвращает обработчик GET /member/subscription-history/{direction}/{transactionID}.
// direction принимает next, prev или none; none и неизвестные значения
// означают первую страницу.
//
// @Summary История транзакций
// @Tags member
// @Produce json
// @Param direction path string true "Направление курсора: next, prev или none"
// @Param transactionID path string true "Идентификатор опорной транзакции или none"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /member/subscription-history/{direction}/{transactionID} [get]
func New(log *slog.Logger, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.transactions.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := middlewarectx.UserIDFromContext(r.Context())
		direction := history.ParseDirection(chi.URLParam(r, "direction"))
		transactionID := chi.URLParam(r, "transactionID")
		if transactionID == "none" {
			transactionID = ""
		}

		page, err := lister.List(r.Context(), userID, direction, transactionID)
		if errors.Is(err, history.ErrNoHistory) {
			render.JSON(w, r, map[string]string{
				"message": "You have no transaction history!",
			})
			return
		}
		if err != nil {
			log.Error("failed to list transaction history", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list transaction history"))
			return
		}
		log.Info("listed transaction history",
			slog.Int64("user_id", userID),
			slog.Int("count", len(page.Items)))

		render.JSON(w, r, response.OKWithData(page))
	}
}
