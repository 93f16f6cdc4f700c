// Package pay принимает запрос на списание со страницы оформления
// подписки и возвращает квитанцию процессора.
package pay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/http/response"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
	"github.com/membergate/subscription-gatekeeper/internal/models"
	"github.com/membergate/subscription-gatekeeper/internal/services/charge"
)

// Charger выполняет одно списание по запросу.
type Charger interface {
	Charge(ctx context.Context, req models.ChargeRequest) (*models.ChargeResult, error)
}

// New возвращает обработчик POST /member/subscription/charge.
// Идентификатор и email пользователя берутся из контекста запроса,
// значения из тела перезаписываются.
//
// @Summary Списание за подписку
// @Tags member
// @Accept json
// @Produce json
// @Param request body models.ChargeRequest true "Запрос на списание"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /member/subscription/charge [post]
func New(log *slog.Logger, charger Charger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.pay.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.ChargeRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		req.UserID = middlewarectx.UserIDFromContext(r.Context())
		if email := middlewarectx.EmailFromContext(r.Context()); email != "" {
			req.Email = email
		}
		log.Info("request body decoded", slog.Int64("user_id", req.UserID))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		result, err := charger.Charge(r.Context(), req)
		if err != nil {
			writeChargeError(w, r, log, err)
			return
		}
		log.Info("charge succeeded",
			slog.String("charge_id", result.ChargeID),
			slog.String("settlement_id", result.SettlementID))

		render.JSON(w, r, response.OKWithData(result))
	}
}

// writeChargeError раскладывает ошибку исполнителя по статусам:
// нарушение валидации — 422, отказ процессора — 502 с признаком
// отклонения по карте, остальное — 500.
func writeChargeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var validationErr *charge.ValidationError
	if errors.As(err, &validationErr) {
		log.Error("charge request rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(validationErr.Reason))
		return
	}

	var gatewayErr *charge.GatewayError
	if errors.As(err, &gatewayErr) {
		log.Error("processor rejected charge", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, map[string]any{
			"status":   response.StatusError,
			"declined": gatewayErr.Declined,
			"code":     gatewayErr.Code,
			"error":    gatewayErr.Message,
		})
		return
	}

	log.Error("failed to execute charge", sl.Err(err))
	w.WriteHeader(http.StatusInternalServerError)
	render.JSON(w, r, response.Error("failed to execute charge"))
}
