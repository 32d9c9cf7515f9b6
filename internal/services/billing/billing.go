// Package billing сверяет платёжные сигналы банка, PayOS и Stripe с подписками
// тенантов и создаёт оплаты для всех трёх каналов.
//
// Тенант становится active только по подтверждённому платежу, и один
// идентификатор транзакции провайдера активирует подписку не более одного раза.
package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/paymentprovider"
)

// Repository операции хранилища, нужные биллингу.
type Repository interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	FindTenantByPaymentReference(ctx context.Context, reference string) (*models.Tenant, error)
	FindTenantsByIDFragment(ctx context.Context, fragment string) ([]*models.Tenant, error)
	SetPaymentReference(ctx context.Context, tenantID, reference string) error
	SetStripeCustomerID(ctx context.Context, tenantID, customerID string) error
	SetStripeSubscription(ctx context.Context, tenantID, subscriptionID string) error
	UpdateStripeSubscriptionState(ctx context.Context, subscriptionID string,
		status models.SubscriptionStatus, periodEnd *time.Time, cancelAtPeriodEnd bool) error
	CancelStripeSubscription(ctx context.Context, subscriptionID string) error
	SetStatusByStripeSubscription(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error

	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
	CreatePendingPayment(ctx context.Context, p *models.PaymentTransaction) (*models.PaymentTransaction, error)
	MarkPaymentFailed(ctx context.Context, transactionID, note string) error
	RecordFailedPayment(ctx context.Context, p *models.PaymentTransaction) (bool, error)
	CompleteBankPayment(ctx context.Context, p *models.PaymentTransaction, a models.Activation) (bool, error)
	CompletePendingPayment(ctx context.Context, transactionID string, raw []byte,
		paidAt, periodEnd time.Time) (*models.PaymentTransaction, error)
}

// PayOSGateway ссылки оплаты и вебхуки PayOS.
type PayOSGateway interface {
	CreatePaymentLink(ctx context.Context, link paymentprovider.PaymentLink) (string, error)
	ParseWebhook(body []byte) (*paymentprovider.PayOSNotification, error)
}

// StripeGateway подписки Stripe.
type StripeGateway interface {
	ParseWebhook(payload []byte, signature string) (*paymentprovider.StripeEvent, error)
	CreateCustomer(ctx context.Context, tenant *models.Tenant, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, tenantID string, plan models.Plan) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// QRGenerator ссылки на QR для банковского перевода.
type QRGenerator interface {
	QuickLink(amount int64, memo string) string
}

// SignatureVerifier проверка подписи банковского вебхука.
type SignatureVerifier interface {
	Verify(body []byte, signature string) error
}

// Notifier публикует доменные события.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Metrics учёт вебхуков.
type Metrics interface {
	WebhookProcessed(provider, result string)
}

// Providers платёжные каналы. Ненастроенный канал остаётся nil.
type Providers struct {
	PayOS  PayOSGateway
	Stripe StripeGateway
	VietQR QRGenerator
	Bank   SignatureVerifier
}

// Options тарифы и допуск по сумме.
type Options struct {
	Prices          models.PriceTable
	AmountTolerance int64
	Currency        string
}

// Event событие биллинга для внешнего нотификатора.
type Event struct {
	TenantID      string                    `json:"tenant_id"`
	Provider      string                    `json:"provider"`
	TransactionID string                    `json:"transaction_id,omitempty"`
	Plan          models.Plan               `json:"plan,omitempty"`
	Amount        int64                     `json:"amount,omitempty"`
	Status        models.SubscriptionStatus `json:"status,omitempty"`
	Note          string                    `json:"note,omitempty"`
	OccurredAt    time.Time                 `json:"occurred_at"`
}

// Результаты обработки для метрик.
const (
	resultProcessed = "processed"
	resultIgnored   = "ignored"
	resultFailed    = "failed"
	resultError     = "error"
	resultRejected  = "invalid_signature"
)

// Service сверка и оформление оплат.
type Service struct {
	repo      Repository
	providers Providers
	opts      Options
	clock     clock.Clock
	notifier  Notifier
	metrics   Metrics
	log       *slog.Logger
}

// New создаёт сервис биллинга. notifier может быть nil.
func New(repo Repository, providers Providers, opts Options, clk clock.Clock,
	notifier Notifier, metrics Metrics, log *slog.Logger,
) *Service {
	if opts.Prices == nil {
		opts.Prices = models.NewPriceTable(nil)
	}
	if opts.Currency == "" {
		opts.Currency = "VND"
	}
	return &Service{
		repo:      repo,
		providers: providers,
		opts:      opts,
		clock:     clk,
		notifier:  notifier,
		metrics:   metrics,
		log:       log,
	}
}

// publish отправляет событие. Ошибка только логируется.
func (s *Service) publish(ctx context.Context, routingKey string, event Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("failed to publish billing event",
			slog.String("routing_key", routingKey),
			slog.String("tenant_id", event.TenantID),
			sl.Err(err))
	}
}
