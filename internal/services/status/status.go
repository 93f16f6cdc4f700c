// Package status реализует классификатор состояния подписки и гейт
// доступа: по каждому защищённому запросу решает, пустить пользователя,
// отправить на оформление подписки или продлить истёкшую.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
	"github.com/membergate/subscription-gatekeeper/internal/metrics"
	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// Outcome — результат классификации статуса подписки. Три исхода
// взаимоисключающие и исчерпывающие.
type Outcome int

const (
	// OutcomeNoSubscription — пользователь приглашён, но ни разу не подписывался.
	OutcomeNoSubscription Outcome = iota
	// OutcomeExpired — подписка есть, но истекла; требуется продление.
	OutcomeExpired
	// OutcomeActive — подписка действует.
	OutcomeActive
)

// Classify отображает пару (exists, valid) в один из трёх исходов.
// Тотальная детерминированная функция без побочных эффектов.
func Classify(exists, valid bool) Outcome {
	switch {
	case !exists && !valid:
		return OutcomeNoSubscription
	case exists && !valid:
		return OutcomeExpired
	default:
		return OutcomeActive
	}
}

// DecisionKind — помеченный исход гейта доступа. Ветвление по типу
// результата заменено явным тегом, который разбирается switch'ем
// на вызывающей стороне.
type DecisionKind int

const (
	// DecisionUnauthenticated — пользователь не аутентифицирован, внешний редирект на лендинг.
	DecisionUnauthenticated DecisionKind = iota
	// DecisionGoToSubscribe — подписки нет, редирект на оформление.
	DecisionGoToSubscribe
	// DecisionContinue — запрос продолжает обработку.
	DecisionContinue
	// DecisionError — ошибка проверки статуса, редирект на главную с сообщением.
	DecisionError
)

// Decision — решение гейта по запросу.
type Decision struct {
	Kind    DecisionKind
	Message string // заполнено только при DecisionError
}

// Directory возвращает статус подписки пользователя.
type Directory interface {
	GetSubscriptionStatus(ctx context.Context, userID int64) (models.SubscriptionStatus, error)
}

// Renewer синхронно продлевает истёкшую подписку одного пользователя.
type Renewer interface {
	RenewOne(ctx context.Context, userID int64) error
}

// Cache описывает методы кэширования статуса.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service — гейт доступа поверх справочника подписчиков.
type Service struct {
	directory Directory
	renewer   Renewer
	cache     Cache
	statusTTL time.Duration
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(directory Directory, renewer Renewer, cache Cache, statusTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		directory: directory,
		renewer:   renewer,
		cache:     cache,
		statusTTL: statusTTL,
		log:       log,
	}
}

// CheckAccess принимает решение по текущему пользователю. При userID <= 0
// справочник не опрашивается. Истёкшая подписка синхронно продлевается;
// неудача продления логируется и считается, но запрос продолжается —
// зафиксированное продуктовое решение, гейт его не ужесточает.
func (s *Service) CheckAccess(ctx context.Context, userID int64) Decision {
	const op = "status.CheckAccess"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	if userID <= 0 {
		metrics.AccessDecisions.WithLabelValues("unauthenticated").Inc()
		return Decision{Kind: DecisionUnauthenticated}
	}

	subStatus, err := s.getStatus(ctx, userID)
	if err != nil {
		log.Error("failed to get subscription status", sl.Err(err))
		metrics.AccessDecisions.WithLabelValues("error").Inc()
		return Decision{Kind: DecisionError, Message: err.Error()}
	}

	switch Classify(subStatus.Exists, subStatus.Valid) {
	case OutcomeNoSubscription:
		metrics.AccessDecisions.WithLabelValues("subscribe").Inc()
		return Decision{Kind: DecisionGoToSubscribe}
	case OutcomeExpired:
		if err := s.renewer.RenewOne(ctx, userID); err != nil {
			log.Error("failed to renew expired subscription", sl.Err(err))
		}
		if err := s.cache.Invalidate(statusKey(userID)); err != nil {
			log.Warn("failed to invalidate status cache", sl.Err(err))
		}
		metrics.AccessDecisions.WithLabelValues("continue").Inc()
		return Decision{Kind: DecisionContinue}
	default:
		metrics.AccessDecisions.WithLabelValues("continue").Inc()
		return Decision{Kind: DecisionContinue}
	}
}

func (s *Service) getStatus(ctx context.Context, userID int64) (models.SubscriptionStatus, error) {
	key := statusKey(userID)

	var cached models.SubscriptionStatus
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read status cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	subStatus, err := s.directory.GetSubscriptionStatus(ctx, userID)
	if err != nil {
		return models.SubscriptionStatus{}, err
	}

	if err := s.cache.Set(key, subStatus, s.statusTTL); err != nil {
		s.log.Warn("failed to cache subscription status", slog.String("key", key), sl.Err(err))
	}
	return subStatus, nil
}

func statusKey(userID int64) string {
	return fmt.Sprintf("substatus:%d", userID)
}
