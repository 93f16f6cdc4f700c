// Package sweeper собирает отдельное приложение ежедневной зачистки:
// продление всех истёкших подписок без HTTP-сервера.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/membergate/subscription-gatekeeper/internal/config"
	stripegw "github.com/membergate/subscription-gatekeeper/internal/gateway/stripe"
	"github.com/membergate/subscription-gatekeeper/internal/lib/rabbitmq"
	"github.com/membergate/subscription-gatekeeper/internal/services/charge"
	"github.com/membergate/subscription-gatekeeper/internal/services/renewal"
	"github.com/membergate/subscription-gatekeeper/internal/services/sweep"
	"github.com/membergate/subscription-gatekeeper/internal/storage/repository"
)

// App представляет приложение зачистки.
type App struct {
	renewalService *renewal.Service
	scheduler      *sweep.Scheduler
	db             *repository.Storage
	conn           *amqp.Connection
	ch             *amqp.Channel
	logger         *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := db.CheckDatabaseReady(ctx)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения зачистки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	gateway := stripegw.New(cfg.Stripe.SecretKey)
	executor := charge.NewExecutor(gateway, db, db,
		cfg.Stripe.ChargeDescription, cfg.Stripe.ChargeTimeout, logger)
	publisher := rabbitmq.NewPublisher(ch)
	renewalService := renewal.New(db, executor, publisher, logger)

	return &App{
		renewalService: renewalService,
		scheduler:      sweep.NewScheduler(24*time.Hour, logger),
		db:             db,
		conn:           conn,
		ch:             ch,
		logger:         logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run регистрирует ежедневную зачистку и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.renewalService.RegisterSweep(a.scheduler)

	<-ctx.Done()

	a.logger.Info("shutting down sweeper")
	a.scheduler.Stop()
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}
