package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/paymentprovider"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
)

// HandleStripeWebhook проверяет подпись и применяет событие подписки.
// Каждое событие выставляет абсолютные значения по id подписки, поэтому
// повтор безопасен. Ошибки хранилища логируются и не возвращаются.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	const op = "billing.HandleStripeWebhook"

	if s.providers.Stripe == nil {
		return fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	event, err := s.providers.Stripe.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.WebhookProcessed(models.ProviderStripe, resultRejected)
		return fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.String("subscription_id", event.SubscriptionID),
	)

	status, err := s.applyStripeEvent(ctx, event)
	switch {
	case err != nil:
		log.Error("failed to apply stripe event", sl.Err(err))
		s.metrics.WebhookProcessed(models.ProviderStripe, resultError)
	case status == "":
		log.Debug("stripe event ignored")
		s.metrics.WebhookProcessed(models.ProviderStripe, resultIgnored)
	default:
		log.Info("stripe event applied", slog.String("status", string(status)))
		s.metrics.WebhookProcessed(models.ProviderStripe, resultProcessed)
		s.publish(ctx, rabbitmq.RoutingSubscriptionChanged, Event{
			TenantID:      event.TenantID,
			Provider:      models.ProviderStripe,
			TransactionID: event.ID,
			Status:        status,
			OccurredAt:    s.clock.Now(),
		})
	}
	return nil
}

// applyStripeEvent возвращает выставленный статус или пустую строку для
// пропущенного события.
func (s *Service) applyStripeEvent(ctx context.Context, event *paymentprovider.StripeEvent) (models.SubscriptionStatus, error) {
	switch event.Type {
	case paymentprovider.EventCheckoutCompleted:
		if !event.SubscriptionMode || event.TenantID == "" || event.SubscriptionID == "" {
			return "", nil
		}
		return models.SubscriptionActive, s.repo.SetStripeSubscription(ctx, event.TenantID, event.SubscriptionID)

	case paymentprovider.EventSubscriptionUpdated:
		if event.SubscriptionID == "" {
			return "", nil
		}
		return event.Status, s.repo.UpdateStripeSubscriptionState(ctx, event.SubscriptionID,
			event.Status, event.CurrentPeriodEnd, event.CancelAtPeriodEnd)

	case paymentprovider.EventSubscriptionDeleted:
		if event.SubscriptionID == "" {
			return "", nil
		}
		return models.SubscriptionCanceled, s.repo.CancelStripeSubscription(ctx, event.SubscriptionID)

	case paymentprovider.EventInvoicePaymentSucceeded:
		if event.SubscriptionID == "" {
			return "", nil
		}
		return models.SubscriptionActive,
			s.repo.SetStatusByStripeSubscription(ctx, event.SubscriptionID, models.SubscriptionActive)

	case paymentprovider.EventInvoicePaymentFailed:
		if event.SubscriptionID == "" {
			return "", nil
		}
		return models.SubscriptionPastDue,
			s.repo.SetStatusByStripeSubscription(ctx, event.SubscriptionID, models.SubscriptionPastDue)

	default:
		return "", nil
	}
}
