// Package history реализует постраничную выдачу истории транзакций
// пользователя через курсорную пагинацию процессора.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// Direction задаёт направление курсора относительно транзакции.
type Direction string

const (
	// DirectionNone — первая страница, курсор игнорируется.
	DirectionNone Direction = ""
	// DirectionNext — записи строго после указанной транзакции.
	DirectionNext Direction = "next"
	// DirectionPrev — записи строго до указанной транзакции.
	DirectionPrev Direction = "prev"
)

// ParseDirection переводит значение из URL в Direction; неизвестные
// значения трактуются как отсутствие направления.
func ParseDirection(raw string) Direction {
	switch raw {
	case string(DirectionNext):
		return DirectionNext
	case string(DirectionPrev):
		return DirectionPrev
	default:
		return DirectionNone
	}
}

// ErrNoHistory — у пользователя нет customer у процессора, а значит и
// истории транзакций.
var ErrNoHistory = errors.New("no transaction history")

// pageLimit — максимум списаний на страницу у процессора.
const pageLimit = 100

// Directory возвращает идентификатор customer процессора за пользователем.
type Directory interface {
	GetCustomerRef(ctx context.Context, userID int64) (string, error)
}

// Gateway возвращает страницу списаний customer.
type Gateway interface {
	ListCharges(ctx context.Context, customerID string, limit int64, startingAfter, endingBefore string) (*models.HistoryPage, error)
}

// Service — пагинатор истории транзакций.
type Service struct {
	directory Directory
	gateway   Gateway
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(directory Directory, gateway Gateway, log *slog.Logger) *Service {
	return &Service{
		directory: directory,
		gateway:   gateway,
		log:       log,
	}
}

// List возвращает страницу истории транзакций. Курсор без состояния:
// для продолжения вызывающая сторона передаёт последний увиденный id.
// Страница отдаётся так, как её вернул процессор, без усечения.
func (s *Service) List(ctx context.Context, userID int64, direction Direction, transactionID string) (*models.HistoryPage, error) {
	const op = "history.List"

	customerRef, err := s.directory.GetCustomerRef(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if customerRef == "" {
		return nil, ErrNoHistory
	}

	var startingAfter, endingBefore string
	if transactionID != "" {
		switch direction {
		case DirectionNext:
			startingAfter = transactionID
		case DirectionPrev:
			endingBefore = transactionID
		}
	}

	page, err := s.gateway.ListCharges(ctx, customerRef, pageLimit, startingAfter, endingBefore)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("listed transaction history",
		slog.Int64("user_id", userID),
		slog.Int("count", len(page.Items)),
		slog.Bool("has_more", page.HasMore))
	return page, nil
}
