package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/payref"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/paymentprovider"
)

// payOSDescriptionLimit ограничение PayOS на длину описания.
const payOSDescriptionLimit = 25

func (s *Service) planPrice(op, rawPlan string) (models.Plan, int64, error) {
	plan, ok := models.ParsePlan(rawPlan)
	if !ok {
		return "", 0, fmt.Errorf("%s: unknown plan %q: %w", op, rawPlan, models.ErrValidation)
	}
	price, ok := s.opts.Prices.Price(plan)
	if !ok {
		return "", 0, fmt.Errorf("%s: no price for plan %q: %w", op, rawPlan, models.ErrValidation)
	}
	return plan, price, nil
}

// CreateBankTransferCheckout выдаёт платёжную ссылку для перевода и QR с ней.
// Ссылка сохраняется у тенанта для точного сопоставления банковской операции.
func (s *Service) CreateBankTransferCheckout(ctx context.Context, tenantID, rawPlan string) (*models.Checkout, error) {
	const op = "billing.CreateBankTransferCheckout"

	plan, price, err := s.planPrice(op, rawPlan)
	if err != nil {
		return nil, err
	}
	if s.providers.VietQR == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reference := payref.Generate(tenant.ID, plan, s.clock.Now())
	if err := s.repo.SetPaymentReference(ctx, tenant.ID, reference); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bank transfer reference issued",
		slog.String("tenant_id", tenant.ID),
		slog.String("reference", reference))

	return &models.Checkout{
		Provider:         models.ProviderBank,
		URL:              s.providers.VietQR.QuickLink(price, reference),
		PaymentReference: reference,
		Amount:           price,
		Currency:         s.opts.Currency,
	}, nil
}

// CreatePayOSCheckout создаёт ожидающую транзакцию с числовым кодом заказа
// и ссылку оплаты PayOS. Если ссылку создать не удалось, транзакция помечается failed.
func (s *Service) CreatePayOSCheckout(ctx context.Context, tenantID, rawPlan string) (*models.Checkout, error) {
	const op = "billing.CreatePayOSCheckout"

	plan, price, err := s.planPrice(op, rawPlan)
	if err != nil {
		return nil, err
	}
	if s.providers.PayOS == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now()
	code := payref.OrderCode(tenant.ID, plan, now)
	txID := strconv.FormatInt(code, 10)
	pending, err := s.repo.CreatePendingPayment(ctx, &models.PaymentTransaction{
		TenantID:         tenant.ID,
		TransactionID:    txID,
		Provider:         models.ProviderPayOS,
		Plan:             plan,
		Amount:           price,
		Currency:         s.opts.Currency,
		PaymentReference: payref.Generate(tenant.ID, plan, now),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	description := "MEAL " + strings.ToUpper(string(plan)) + " " + payref.TenantFragment(tenant.ID)
	if len(description) > payOSDescriptionLimit {
		description = description[:payOSDescriptionLimit]
	}
	url, err := s.providers.PayOS.CreatePaymentLink(ctx, paymentprovider.PaymentLink{
		OrderCode:   code,
		Amount:      price,
		ItemName:    "Subscription " + string(plan),
		Description: description,
	})
	if err != nil {
		if markErr := s.repo.MarkPaymentFailed(ctx, txID, "payment link creation failed"); markErr != nil {
			s.log.Error("failed to mark payos payment failed",
				slog.String("transaction_id", txID), sl.Err(markErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Checkout{
		Provider:         models.ProviderPayOS,
		URL:              url,
		PaymentReference: pending.PaymentReference,
		OrderCode:        code,
		Amount:           price,
		Currency:         s.opts.Currency,
	}, nil
}

// CreateStripeCheckout создаёт сессию оформления подписки Stripe,
// при необходимости заводя клиента Stripe для тенанта.
func (s *Service) CreateStripeCheckout(ctx context.Context, tenantID, email, rawPlan string) (*models.Checkout, error) {
	const op = "billing.CreateStripeCheckout"

	plan, price, err := s.planPrice(op, rawPlan)
	if err != nil {
		return nil, err
	}
	if s.providers.Stripe == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customerID := tenant.StripeCustomerID
	if customerID == "" {
		customerID, err = s.providers.Stripe.CreateCustomer(ctx, tenant, email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.SetStripeCustomerID(ctx, tenant.ID, customerID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	url, err := s.providers.Stripe.CreateCheckoutSession(ctx, customerID, tenant.ID, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Checkout{
		Provider: models.ProviderStripe,
		URL:      url,
		Amount:   price,
		Currency: s.opts.Currency,
	}, nil
}

// CreateStripePortal ссылка на портал управления подпиской Stripe.
func (s *Service) CreateStripePortal(ctx context.Context, tenantID string) (string, error) {
	const op = "billing.CreateStripePortal"

	if s.providers.Stripe == nil {
		return "", fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if tenant.StripeCustomerID == "" {
		return "", fmt.Errorf("%s: tenant has no stripe customer: %w", op, models.ErrValidation)
	}
	url, err := s.providers.Stripe.CreatePortalSession(ctx, tenant.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return url, nil
}
