// Package scheduler запускает задачу автосброса отказов по таймеру.
// Повторные запуски безопасны: задача сама проверяет время и отметку последнего запуска.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/metrics"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
	"github.com/magabrotheeeer/meal-ordering/internal/services/autoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	autoReset *autoreset.Service
	interval  time.Duration
	metrics   *http.Server
	db        *repository.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	app := &App{
		db:       db,
		interval: cfg.SchedulerInterval,
		logger:   logger,
	}
	if err := db.WaitReady(ctx, 10, 3*time.Second); err != nil {
		app.close()
		return nil, err
	}

	var notifier autoreset.Notifier
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.NotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		notifier = rabbitmq.NewPublisher(app.ch)
	}

	m := metrics.New("scheduler")
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	app.metrics = &http.Server{
		Addr:              cfg.SchedulerMetrics,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	app.autoReset = autoreset.New(db, clock.System{}, cfg.ResetTolerance, notifier, m, logger)
	return app, nil
}

// Run выполняет автосброс до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	go func() {
		a.logger.Info("scheduler metrics listening", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", sl.Err(err))
		}
	}()

	a.logger.Info("auto-reset scheduler started", slog.Duration("interval", a.interval))
	a.autoReset.Start(ctx, a.interval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.metrics.Shutdown(shutdownCtx)
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ connection", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
