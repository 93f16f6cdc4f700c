// Package health отдаёт статус готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/membergate/subscription-gatekeeper/internal/http/response"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
)

// Checker проверяет доступность хранилища.
type Checker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// New возвращает обработчик GET /healthz.
func New(log *slog.Logger, checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.CheckDatabaseReady(r.Context()); err != nil {
			log.Error("storage is not ready", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("storage is not ready"))
			return
		}
		render.JSON(w, r, response.OKWithData(map[string]string{"health": "ok"}))
	}
}
