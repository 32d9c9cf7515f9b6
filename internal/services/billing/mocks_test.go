package billing

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/paymentprovider"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockRepository) FindTenantByPaymentReference(ctx context.Context, reference string) (*models.Tenant, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockRepository) FindTenantsByIDFragment(ctx context.Context, fragment string) ([]*models.Tenant, error) {
	args := m.Called(ctx, fragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockRepository) SetPaymentReference(ctx context.Context, tenantID, reference string) error {
	return m.Called(ctx, tenantID, reference).Error(0)
}

func (m *MockRepository) SetStripeCustomerID(ctx context.Context, tenantID, customerID string) error {
	return m.Called(ctx, tenantID, customerID).Error(0)
}

func (m *MockRepository) SetStripeSubscription(ctx context.Context, tenantID, subscriptionID string) error {
	return m.Called(ctx, tenantID, subscriptionID).Error(0)
}

func (m *MockRepository) UpdateStripeSubscriptionState(ctx context.Context, subscriptionID string,
	status models.SubscriptionStatus, periodEnd *time.Time, cancelAtPeriodEnd bool,
) error {
	return m.Called(ctx, subscriptionID, status, periodEnd, cancelAtPeriodEnd).Error(0)
}

func (m *MockRepository) CancelStripeSubscription(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

func (m *MockRepository) SetStatusByStripeSubscription(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error {
	return m.Called(ctx, subscriptionID, status).Error(0)
}

func (m *MockRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

func (m *MockRepository) CreatePendingPayment(ctx context.Context, p *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

func (m *MockRepository) MarkPaymentFailed(ctx context.Context, transactionID, note string) error {
	return m.Called(ctx, transactionID, note).Error(0)
}

func (m *MockRepository) RecordFailedPayment(ctx context.Context, p *models.PaymentTransaction) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CompleteBankPayment(ctx context.Context, p *models.PaymentTransaction, a models.Activation) (bool, error) {
	args := m.Called(ctx, p, a)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CompletePendingPayment(ctx context.Context, transactionID string, raw []byte,
	paidAt, periodEnd time.Time,
) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, transactionID, raw, paidAt, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

type MockPayOS struct{ mock.Mock }

func (m *MockPayOS) CreatePaymentLink(ctx context.Context, link paymentprovider.PaymentLink) (string, error) {
	args := m.Called(ctx, link)
	return args.String(0), args.Error(1)
}

func (m *MockPayOS) ParseWebhook(body []byte) (*paymentprovider.PayOSNotification, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PayOSNotification), args.Error(1)
}

type MockStripe struct{ mock.Mock }

func (m *MockStripe) ParseWebhook(payload []byte, signature string) (*paymentprovider.StripeEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.StripeEvent), args.Error(1)
}

func (m *MockStripe) CreateCustomer(ctx context.Context, tenant *models.Tenant, email string) (string, error) {
	args := m.Called(ctx, tenant, email)
	return args.String(0), args.Error(1)
}

func (m *MockStripe) CreateCheckoutSession(ctx context.Context, customerID, tenantID string, plan models.Plan) (string, error) {
	args := m.Called(ctx, customerID, tenantID, plan)
	return args.String(0), args.Error(1)
}

func (m *MockStripe) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

type MockQR struct{ mock.Mock }

func (m *MockQR) QuickLink(amount int64, memo string) string {
	return m.Called(amount, memo).String(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) WebhookProcessed(provider, result string) {
	m.Called(provider, result)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// testNow 10 июня 2025, 09:00 по бизнес-времени.
var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, clock.Location)

type fixture struct {
	repo     *MockRepository
	payos    *MockPayOS
	stripe   *MockStripe
	qr       *MockQR
	notifier *MockNotifier
	metrics  *MockMetrics
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		payos:    new(MockPayOS),
		stripe:   new(MockStripe),
		qr:       new(MockQR),
		notifier: new(MockNotifier),
		metrics:  new(MockMetrics),
	}
	f.svc = New(f.repo, Providers{
		PayOS:  f.payos,
		Stripe: f.stripe,
		VietQR: f.qr,
		Bank:   NewSecretVerifier("casso-secret"),
	}, Options{
		Prices:          models.NewPriceTable(nil),
		AmountTolerance: 100,
		Currency:        "VND",
	}, clock.Fixed{T: testNow}, f.notifier, f.metrics, newNoopLogger())
	return f
}
