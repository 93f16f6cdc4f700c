// Package renewal реализует оркестратор продлений: по одному пользователю
// с гейта доступа и пакетно по всем истёкшим подпискам из ежедневной зачистки.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
	"github.com/membergate/subscription-gatekeeper/internal/metrics"
	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// SweepJobID — фиксированный идентификатор ежедневной зачистки.
// Повторная регистрация с этим id заменяет прежнее расписание.
const SweepJobID = "Subscription Renewal"

// Directory возвращает записи об истёкших подписках, готовые к списанию.
type Directory interface {
	GetExpiredSubscription(ctx context.Context, userID int64) (*models.ExpiredSubscription, error)
	GetExpiredSubscriptions(ctx context.Context) ([]*models.ExpiredSubscription, error)
}

// Executor выполняет одно списание по запросу.
type Executor interface {
	Charge(ctx context.Context, req models.ChargeRequest) (*models.ChargeResult, error)
}

// Publisher публикует события биллинга.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Scheduler регистрирует ежедневную задачу по идентификатору.
type Scheduler interface {
	RegisterDaily(jobID string, fn func(ctx context.Context))
}

// Event — событие об исходе попытки продления.
type Event struct {
	EventID      string    `json:"event_id"`
	UserID       int64     `json:"user_id"`
	Trigger      string    `json:"trigger"` // gate или sweep
	AmountDue    int64     `json:"amount_due"`
	SettlementID string    `json:"settlement_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Service — оркестратор продлений.
type Service struct {
	directory Directory
	executor  Executor
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(directory Directory, executor Executor, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		directory: directory,
		executor:  executor,
		publisher: publisher,
		log:       log,
	}
}

// RenewOne продлевает истёкшую подписку одного пользователя: берёт
// из справочника единственную истёкшую запись и выполняет одно списание.
func (s *Service) RenewOne(ctx context.Context, userID int64) error {
	const op = "renewal.RenewOne"

	record, err := s.directory.GetExpiredSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.renew(ctx, record, "gate")
}

// RenewAll продлевает все истёкшие подписки. Каждая запись обрабатывается
// независимо: неудача одного списания не останавливает остальные.
// Возвращает совокупную ошибку по неудавшимся записям.
func (s *Service) RenewAll(ctx context.Context) error {
	const op = "renewal.RenewAll"
	log := s.log.With(slog.String("op", op))

	records, err := s.directory.GetExpiredSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		log.Info("no expired subscriptions found")
		return nil
	}
	log.Info("found expired subscriptions", "count", len(records))

	var errs []error
	for _, record := range records {
		if err := s.renew(ctx, record, "sweep"); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", record.UserID, err))
		}
	}
	if len(errs) > 0 {
		log.Error("sweep finished with failures",
			"failed", len(errs), "total", len(records))
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return nil
}

// RegisterSweep регистрирует ежедневную зачистку под фиксированным
// идентификатором. Вызывается на каждом старте приложения; планировщик
// заменяет прежнее расписание, а не дублирует его.
func (s *Service) RegisterSweep(scheduler Scheduler) {
	scheduler.RegisterDaily(SweepJobID, func(ctx context.Context) {
		if err := s.RenewAll(ctx); err != nil {
			s.log.Error("daily sweep failed", sl.Err(err))
		}
	})
}

func (s *Service) renew(ctx context.Context, record *models.ExpiredSubscription, trigger string) error {
	log := s.log.With(
		slog.Int64("user_id", record.UserID),
		slog.String("trigger", trigger),
	)

	// Запрос собирается заново на каждую попытку и не переиспользуется.
	req := models.ChargeRequest{
		UserID:      record.UserID,
		CustomerRef: record.CustomerRef,
		Email:       record.Email,
		AmountDue:   record.AmountDue,
	}

	result, err := s.executor.Charge(ctx, req)
	if err != nil {
		log.Error("renewal charge failed", sl.Err(err))
		metrics.Renewals.WithLabelValues(trigger, "failed").Inc()
		s.publish("renewal.failed", Event{
			EventID:    uuid.NewString(),
			UserID:     record.UserID,
			Trigger:    trigger,
			AmountDue:  record.AmountDue,
			Error:      err.Error(),
			OccurredAt: time.Now().UTC(),
		})
		return err
	}

	log.Info("subscription renewed", slog.String("settlement_id", result.SettlementID))
	metrics.Renewals.WithLabelValues(trigger, "succeeded").Inc()
	s.publish("renewal.succeeded", Event{
		EventID:      uuid.NewString(),
		UserID:       record.UserID,
		Trigger:      trigger,
		AmountDue:    record.AmountDue,
		SettlementID: result.SettlementID,
		OccurredAt:   time.Now().UTC(),
	})
	return nil
}

func (s *Service) publish(routingKey string, event Event) {
	if err := s.publisher.Publish(routingKey, event); err != nil {
		s.log.Error("failed to publish renewal event", sl.Err(err))
	}
}
