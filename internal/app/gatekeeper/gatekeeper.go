// Package gatekeeper собирает HTTP-сервис гейткипера: хранилище, кеш,
// клиент процессора, брокер событий, сервисы и маршруты.
package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/membergate/subscription-gatekeeper/internal/cache"
	"github.com/membergate/subscription-gatekeeper/internal/config"
	stripegw "github.com/membergate/subscription-gatekeeper/internal/gateway/stripe"
	"github.com/membergate/subscription-gatekeeper/internal/lib/jwt"
	"github.com/membergate/subscription-gatekeeper/internal/lib/rabbitmq"
	"github.com/membergate/subscription-gatekeeper/internal/migrations"
	"github.com/membergate/subscription-gatekeeper/internal/services/charge"
	"github.com/membergate/subscription-gatekeeper/internal/services/history"
	"github.com/membergate/subscription-gatekeeper/internal/services/renewal"
	"github.com/membergate/subscription-gatekeeper/internal/services/status"
	"github.com/membergate/subscription-gatekeeper/internal/services/sweep"
	"github.com/membergate/subscription-gatekeeper/internal/storage/repository"
)

// App — приложение гейткипера.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	scheduler *sweep.Scheduler
	conn      *amqp.Connection
	ch        *amqp.Channel
}

// New собирает приложение: подключает зависимости, строит сервисы,
// регистрирует ежедневную зачистку и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(ch)

	gateway := stripegw.New(cfg.Stripe.SecretKey)

	executor := charge.NewExecutor(gateway, db, db,
		cfg.Stripe.ChargeDescription, cfg.Stripe.ChargeTimeout, logger)
	renewalService := renewal.New(db, executor, publisher, logger)
	statusService := status.New(db, renewalService, cacheRedis, cfg.StatusTTL, logger)
	historyService := history.New(db, gateway, logger)

	scheduler := sweep.NewScheduler(24*time.Hour, logger)
	renewalService.RegisterSweep(scheduler)

	jwtParser := jwt.NewParser(cfg.JWTSecretKey)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtParser, statusService, executor, historyService, db, cfg.Stripe.PlanAmount)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		scheduler: scheduler,
		conn:      conn,
		ch:        ch,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.scheduler.Stop()
		closeResources(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}
