package gatekeeper

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/health"
	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/pay"
	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/subscribe"
	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/transactions"
	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/lib/jwt"
	chargeservice "github.com/membergate/subscription-gatekeeper/internal/services/charge"
	historyservice "github.com/membergate/subscription-gatekeeper/internal/services/history"
	statusservice "github.com/membergate/subscription-gatekeeper/internal/services/status"
	"github.com/membergate/subscription-gatekeeper/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// Страница оформления и само списание доступны без гейта: на них
// попадают как раз те пользователи, у которых подписки ещё нет или
// она истекла. Гейт закрывает остальную зону /member.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	jwtParser jwt.Parser,
	statusService *statusservice.Service,
	executor *chargeservice.Executor,
	historyService *historyservice.Service,
	db *repository.Storage,
	planAmount int64,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/member", func(r chi.Router) {
		r.Use(middlewarectx.AuthMiddleware(jwtParser, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		r.Get("/subscriptions", subscribe.New(logger, db, planAmount).ServeHTTP)
		r.Post("/subscription/charge", pay.New(logger, executor).ServeHTTP)

		// Зона за гейтом проверки подписки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.AccessGateMiddleware(logger, statusService))
			r.Get("/subscription-history/{direction}/{transactionID}", transactions.New(logger, historyService).ServeHTTP)
		})
	})

	r.Get("/healthz", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
