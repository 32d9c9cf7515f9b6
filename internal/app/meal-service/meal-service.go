package mealservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	// Регистрация Swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/meal-ordering/docs"
	"github.com/magabrotheeeer/meal-ordering/internal/cache"
	"github.com/magabrotheeeer/meal-ordering/internal/config"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/jwt"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/metrics"
	"github.com/magabrotheeeer/meal-ordering/internal/migrations"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/paymentprovider"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
	"github.com/magabrotheeeer/meal-ordering/internal/services/autoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/services/billing"
	"github.com/magabrotheeeer/meal-ordering/internal/services/forecast"
	"github.com/magabrotheeeer/meal-ordering/internal/services/order"
	"github.com/magabrotheeeer/meal-ordering/internal/services/tenant"
	"github.com/magabrotheeeer/meal-ordering/internal/storage/repository"
)

// App HTTP API сервиса.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает маршруты.
// RabbitMQ необязателен: без URL события не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.DB.Close()
		return nil, err
	}
	if err = db.WaitReady(ctx, 10, 3*time.Second); err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var notifier *rabbitmq.Publisher
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
	} else {
		logger.Warn("rabbitmq url is empty, domain events are not published")
	}

	clk := clock.System{}
	m := metrics.New("meal-service")

	autoResetService := autoreset.New(db, clk, cfg.ResetTolerance, publisherOrNil(notifier), m, logger)
	billingService := billing.New(db, newProviders(cfg, logger), billing.Options{
		Prices:          models.NewPriceTable(cfg.Prices),
		AmountTolerance: cfg.AmountTolerance,
		Currency:        cfg.Currency,
	}, clk, publisherOrNil(notifier), m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Orders:    order.New(db, clk, cfg.CutoffHour, m, logger),
		AutoReset: autoResetService,
		Billing:   billingService,
		Forecast:  forecast.New(db, cacheRedis, cfg.ForecastCacheTTL, logger),
		Tenants:   tenant.New(db, clk, cfg.TrialDays, logger),
		Tokens:    jwt.NewJWTMaker(cfg.JWTSecretKey, 0),
		Health:    db.DB,
		Metrics:   m,
		Clock:     clk,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// newProviders настраивает доступные платёжные каналы, остальные остаются nil.
func newProviders(cfg *config.Config, logger *slog.Logger) billing.Providers {
	providers := billing.Providers{
		Bank: billing.NewSecretVerifier(cfg.CassoWebhookSecret),
	}
	if cfg.CassoWebhookSecret == "" {
		logger.Warn("casso webhook secret is empty, bank webhooks are not verified")
	}
	if p, err := paymentprovider.NewPayOS(cfg.PayOS); err == nil {
		providers.PayOS = p
	} else {
		logger.Warn("payos disabled", sl.Err(err))
	}
	if s, err := paymentprovider.NewStripe(cfg.Stripe); err == nil {
		providers.Stripe = s
	} else {
		logger.Warn("stripe disabled", sl.Err(err))
	}
	if q := paymentprovider.NewVietQR(cfg.VietQR); q != nil {
		providers.VietQR = q
	} else {
		logger.Warn("vietqr disabled: bank account is not configured")
	}
	return providers
}

// publisherOrNil не допускает интерфейса с nil-указателем внутри.
func publisherOrNil(p *rabbitmq.Publisher) billing.Notifier {
	if p == nil {
		return nil
	}
	return p
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
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
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
