// Package mealservice собирает HTTP-приложение сервиса заказа питания.
package mealservice

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/billing/portal"
	billingstatus "github.com/magabrotheeeer/meal-ordering/internal/http/handlers/billing/status"
	cronautoreset "github.com/magabrotheeeer/meal-ordering/internal/http/handlers/cron/autoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/forecast/breakdown"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/health"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/orders/history"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/orders/lock"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/orders/today"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/orders/toggle"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/settings/cookingdays"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/settings/getautoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/settings/updateautoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/tenants/signup"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/webhooks/casso"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/webhooks/payos"
	"github.com/magabrotheeeer/meal-ordering/internal/http/handlers/webhooks/stripe"
	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/metrics"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/services/autoreset"
	"github.com/magabrotheeeer/meal-ordering/internal/services/billing"
	"github.com/magabrotheeeer/meal-ordering/internal/services/forecast"
	"github.com/magabrotheeeer/meal-ordering/internal/services/order"
	"github.com/magabrotheeeer/meal-ordering/internal/services/tenant"
)

// Services зависимости маршрутов.
type Services struct {
	Orders    *order.Service
	AutoReset *autoreset.Service
	Billing   *billing.Service
	Forecast  *forecast.Service
	Tenants   *tenant.Service
	Tokens    middlewarectx.TokenParser
	Health    health.Pinger
	Metrics   *metrics.Metrics
	Clock     clock.Clock
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		s.Metrics.Middleware,
		corsHandler(cfg.AllowedOrigins),
	)

	healthHandler := health.New(logger, s.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.ServeHTTP)
		// Вебхуки провайдеров проверяются подписью
		r.Post("/webhooks/casso", casso.New(logger, s.Billing).ServeHTTP)
		r.Post("/webhooks/payos", payos.New(logger, s.Billing).ServeHTTP)
		r.Post("/webhooks/stripe", stripe.New(logger, s.Billing).ServeHTTP)

		r.With(middlewarectx.CronSecret(cfg.CronSecret, logger)).
			Post("/cron/auto-reset", cronautoreset.New(logger, s.AutoReset).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Auth(s.Tokens, logger))
			r.Use(middlewarectx.RateLimit(logger, cfg.RateLimit, cfg.RateBurst))

			r.Post("/tenants", signup.New(logger, s.Tenants).ServeHTTP)
			r.Get("/billing/status", billingstatus.New(logger, s.Tenants).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Post("/billing/checkout/{provider}", checkout.New(logger, s.Billing).ServeHTTP)
				r.Post("/billing/portal", portal.New(logger, s.Billing).ServeHTTP)
			})

			// Маршруты тенанта закрыты при отменённой подписке или истёкшем пробном периоде
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.SubscriptionStatus(logger, s.Tenants))

				r.Get("/orders/today", today.New(logger, s.Orders).ServeHTTP)
				r.Post("/orders/today/toggle", toggle.New(logger, s.Orders).ServeHTTP)
				r.Get("/orders", history.New(logger, s.Orders).ServeHTTP)

				r.With(middlewarectx.RequireRole(logger, models.RoleManager, models.RoleAdmin)).
					Post("/orders/lock", lock.New(logger, s.Orders).ServeHTTP)
				r.With(middlewarectx.RequireRole(logger, models.RoleKitchen, models.RoleManager, models.RoleAdmin)).
					Get("/forecast", breakdown.New(logger, s.Forecast, s.Clock).ServeHTTP)

				r.Group(func(r chi.Router) {
					r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
					r.Get("/settings/auto-reset", getautoreset.New(logger, s.AutoReset).ServeHTTP)
					r.Put("/settings/auto-reset", updateautoreset.New(logger, s.AutoReset).ServeHTTP)
					r.Put("/settings/cooking-days", cookingdays.New(logger, s.Forecast).ServeHTTP)
				})
			})
		})
	})

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", s.Metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
