// Package metrics собирает метрики Prometheus: HTTP-запросы, переключения
// заказов, запуски автосброса и обработку платёжных вебхуков.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор метрик сервиса с собственным реестром.
type Metrics struct {
	service  string
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	statusCategory *prometheus.CounterVec

	orderToggles   *prometheus.CounterVec
	autoResetRuns  *prometheus.CounterVec
	autoResetRows  prometheus.Counter
	webhookResults *prometheus.CounterVec
}

// New создаёт и регистрирует метрики сервиса service.
func New(service string) *Metrics {
	m := &Metrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusCategory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category"},
		),
		orderToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_order_toggles_total",
				Help: "Order toggles by result",
			},
			[]string{"result"},
		),
		autoResetRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_auto_reset_runs_total",
				Help: "Auto-reset runs by outcome",
			},
			[]string{"outcome"},
		),
		autoResetRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meal_auto_reset_rows_total",
				Help: "Orders reverted to eating by auto-reset",
			},
		),
		webhookResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billing_webhook_events_total",
				Help: "Payment webhook events by provider and result",
			},
			[]string{"provider", "result"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.statusCategory,
		m.orderToggles,
		m.autoResetRuns,
		m.autoResetRows,
		m.webhookResults,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware считает запросы по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.service, r.Method, path, statusStr).Inc()
		m.duration.WithLabelValues(m.service, r.Method, path, statusStr).Observe(time.Since(start).Seconds())
		if category := statusCategory(status); category != "" {
			m.statusCategory.WithLabelValues(m.service, category).Inc()
		}
	})
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return ""
	}
}

// OrderToggled учитывает попытку переключения заказа.
func (m *Metrics) OrderToggled(result string) {
	m.orderToggles.WithLabelValues(result).Inc()
}

// AutoResetRun учитывает запуск автосброса и число сброшенных заказов.
func (m *Metrics) AutoResetRun(outcome string, rows int64) {
	m.autoResetRuns.WithLabelValues(outcome).Inc()
	if rows > 0 {
		m.autoResetRows.Add(float64(rows))
	}
}

// WebhookProcessed учитывает обработанное событие вебхука.
func (m *Metrics) WebhookProcessed(provider, result string) {
	m.webhookResults.WithLabelValues(provider, result).Inc()
}
