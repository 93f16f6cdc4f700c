// Package charge реализует исполнителя списаний: выбор пути
// новый/существующий customer, вызов платёжного процессора и запись
// settlement id в леджер токенов.
package charge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	stripegw "github.com/membergate/subscription-gatekeeper/internal/gateway/stripe"
	"github.com/membergate/subscription-gatekeeper/internal/lib/sl"
	"github.com/membergate/subscription-gatekeeper/internal/metrics"
	"github.com/membergate/subscription-gatekeeper/internal/models"
)

// Gateway описывает операции платёжного процессора, нужные исполнителю.
type Gateway interface {
	// CreateCustomer создаёт customer по email и одноразовому карточному токену.
	CreateCustomer(ctx context.Context, email, sourceToken string) (string, error)
	// CreateCharge выполняет одно списание с customer.
	CreateCharge(ctx context.Context, amount int64, description, customerID string) (*models.ChargeResult, error)
}

// Ledger записывает settlement id списания и атомарно продлевает подписку.
type Ledger interface {
	RecordSubscriptionTransaction(ctx context.Context, userID int64, token string) error
}

// Directory сохраняет ссылку на созданного customer за пользователем.
type Directory interface {
	SaveCustomerRef(ctx context.Context, userID int64, customerRef string) error
}

// Executor выполняет списания. Конфигурация процессора (описание платежа,
// таймаут) передаётся при конструировании, глобальное состояние не читается.
type Executor struct {
	gateway     Gateway
	ledger      Ledger
	directory   Directory
	description string
	timeout     time.Duration
	log         *slog.Logger
}

// NewExecutor создает новый экземпляр Executor.
func NewExecutor(gateway Gateway, ledger Ledger, directory Directory,
	description string, timeout time.Duration, log *slog.Logger) *Executor {
	return &Executor{
		gateway:     gateway,
		ledger:      ledger,
		directory:   directory,
		description: description,
		timeout:     timeout,
		log:         log,
	}
}

// Charge выполняет ровно одно списание по запросу. Пустой CustomerRef
// выбирает путь с созданием customer (нужны email и карточный токен),
// непустой — прямое списание. Вызов процессора не повторяется; settlement
// id успешного списания записывается в леджер на обоих путях.
func (e *Executor) Charge(ctx context.Context, req models.ChargeRequest) (*models.ChargeResult, error) {
	const op = "charge.Charge"

	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	path := "existing"
	if req.CustomerRef == "" {
		path = "new"
	}
	log := e.log.With(
		slog.String("op", op),
		slog.Int64("user_id", req.UserID),
		slog.String("path", path),
	)

	customerRef := req.CustomerRef
	if customerRef == "" {
		ref, err := e.gateway.CreateCustomer(ctx, req.Email, req.SourceToken)
		if err != nil {
			log.Error("failed to create processor customer", sl.Err(err))
			metrics.Charges.WithLabelValues(path, "failed").Inc()
			return nil, asGatewayError(err)
		}
		customerRef = ref
		log.Info("created processor customer", slog.String("customer_ref", customerRef))

		if err := e.directory.SaveCustomerRef(ctx, req.UserID, customerRef); err != nil {
			// Customer у процессора уже есть, но ссылку сохранить не удалось:
			// списание без неё выполнять нельзя, иначе ссылка потеряется.
			log.Error("failed to save customer ref", sl.Err(err))
			metrics.Charges.WithLabelValues(path, "failed").Inc()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	result, err := e.gateway.CreateCharge(ctx, req.AmountDue, e.description, customerRef)
	if err != nil {
		log.Error("processor rejected charge", sl.Err(err))
		metrics.Charges.WithLabelValues(path, "failed").Inc()
		return nil, asGatewayError(err)
	}
	log.Info("charge succeeded",
		slog.String("charge_id", result.ChargeID),
		slog.String("settlement_id", result.SettlementID))

	if err := e.ledger.RecordSubscriptionTransaction(ctx, req.UserID, result.SettlementID); err != nil {
		log.Error("charge succeeded but ledger write failed", sl.Err(err))
		metrics.Charges.WithLabelValues(path, "failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Charges.WithLabelValues(path, "succeeded").Inc()
	return result, nil
}

func validate(req models.ChargeRequest) error {
	if req.UserID <= 0 {
		return &ValidationError{Reason: "user id is not set"}
	}
	if req.AmountDue <= 0 {
		return &ValidationError{Reason: "amount due must be positive"}
	}
	if req.CustomerRef == "" {
		if req.Email == "" {
			return &ValidationError{Reason: "email is required to create a processor customer"}
		}
		if req.SourceToken == "" {
			return &ValidationError{Reason: "source token is required to create a processor customer"}
		}
	}
	return nil
}

// asGatewayError переводит ошибку клиента процессора в GatewayError
// с сохранением признака отказа по карте.
func asGatewayError(err error) error {
	var apiErr *stripegw.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{
			Declined: apiErr.Declined,
			Code:     apiErr.Code,
			Message:  apiErr.Message,
		}
	}
	return &GatewayError{Message: err.Error()}
}
