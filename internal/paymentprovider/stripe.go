package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/meal-ordering/internal/config"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Типы событий Stripe, которые обрабатывает биллинг.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// StripeEvent проверенное событие Stripe, сведённое к полям тенанта.
type StripeEvent struct {
	ID                string
	Type              string
	TenantID          string
	SubscriptionID    string
	SubscriptionMode  bool
	Status            models.SubscriptionStatus
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// Stripe клиент Stripe.
type Stripe struct {
	webhookSecret string
	priceIDs      map[string]string
	successURL    string
	cancelURL     string
	portalURL     string
}

// NewStripe задаёт ключ SDK. Без секретного ключа возвращает models.ErrNotConfigured.
func NewStripe(cfg config.Stripe) (*Stripe, error) {
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("paymentprovider.NewStripe: %w", models.ErrNotConfigured)
	}
	stripe.Key = cfg.StripeSecretKey
	return &Stripe{
		webhookSecret: cfg.StripeWebhookSecret,
		priceIDs:      cfg.StripePriceIDs,
		successURL:    cfg.StripeSuccessURL,
		cancelURL:     cfg.StripeCancelURL,
		portalURL:     cfg.StripePortalURL,
	}, nil
}

// ParseWebhook проверяет подпись stripe-signature и разбирает событие.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*StripeEvent, error) {
	const op = "paymentprovider.Stripe.ParseWebhook"

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrSignatureInvalid, err)
	}
	result, err := decodeStripeEvent(event)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func decodeStripeEvent(event stripe.Event) (*StripeEvent, error) {
	result := &StripeEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return result, nil
	}

	switch result.Type {
	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, err
		}
		result.SubscriptionMode = cs.Mode == stripe.CheckoutSessionModeSubscription
		result.TenantID = cs.Metadata["tenant_id"]
		if result.TenantID == "" {
			result.TenantID = cs.ClientReferenceID
		}
		if cs.Subscription != nil {
			result.SubscriptionID = cs.Subscription.ID
		}
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, err
		}
		result.SubscriptionID = sub.ID
		result.TenantID = sub.Metadata["tenant_id"]
		result.Status = mapStripeStatus(string(sub.Status))
		result.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].CurrentPeriodEnd > 0 {
			end := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
			result.CurrentPeriodEnd = &end
		}
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, err
		}
		if invoice.Lines != nil {
			for _, line := range invoice.Lines.Data {
				if line.Subscription != nil && line.Subscription.ID != "" {
					result.SubscriptionID = line.Subscription.ID
					break
				}
			}
		}
	}
	return result, nil
}

// mapStripeStatus сводит статусы Stripe к статусам тенанта.
func mapStripeStatus(status string) models.SubscriptionStatus {
	switch status {
	case "active":
		return models.SubscriptionActive
	case "trialing":
		return models.SubscriptionTrialing
	case "canceled", "incomplete_expired":
		return models.SubscriptionCanceled
	default:
		// past_due, unpaid, incomplete, paused
		return models.SubscriptionPastDue
	}
}

// CreateCustomer создаёт клиента Stripe для тенанта.
func (s *Stripe) CreateCustomer(ctx context.Context, tenant *models.Tenant, email string) (string, error) {
	const op = "paymentprovider.Stripe.CreateCustomer"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	params := &stripe.CustomerParams{
		Name:     stripe.String(tenant.Name),
		Metadata: map[string]string{"tenant_id": tenant.ID},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession создаёт сессию оформления подписки и возвращает её URL.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, customerID, tenantID string, plan models.Plan) (string, error) {
	const op = "paymentprovider.Stripe.CreateCheckoutSession"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	priceID := s.priceIDs[string(plan)]
	if priceID == "" {
		return "", fmt.Errorf("%s: no price for plan %s: %w", op, plan, models.ErrValidation)
	}
	metadata := map[string]string{"tenant_id": tenantID, "plan": string(plan)}
	sess, err := checkoutsession.New(&stripe.CheckoutSessionParams{
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(tenantID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata:   metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sess.URL, nil
}

// CreatePortalSession создаёт сессию портала управления подпиской.
func (s *Stripe) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	const op = "paymentprovider.Stripe.CreatePortalSession"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sess, err := billingsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.portalURL),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sess.URL, nil
}
