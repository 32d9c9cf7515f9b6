package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/month"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
)

// payOSSuccessCode код успешной оплаты в уведомлении PayOS.
const payOSSuccessCode = "00"

// HandlePayOSWebhook проверяет подпись и завершает ожидающую оплату.
// Ошибкой завершается только неверная подпись или ненастроенный PayOS,
// остальные случаи подтверждаются провайдеру.
func (s *Service) HandlePayOSWebhook(ctx context.Context, body []byte) error {
	const op = "billing.HandlePayOSWebhook"
	log := s.log.With(slog.String("op", op))

	if s.providers.PayOS == nil {
		return fmt.Errorf("%s: %w", op, models.ErrNotConfigured)
	}
	n, err := s.providers.PayOS.ParseWebhook(body)
	if err != nil {
		s.metrics.WebhookProcessed(models.ProviderPayOS, resultRejected)
		return fmt.Errorf("%s: %w", op, err)
	}

	txID := strconv.FormatInt(n.OrderCode, 10)
	log = log.With(slog.String("transaction_id", txID))
	if n.Code != payOSSuccessCode {
		log.Info("non-success payos notification", slog.String("code", n.Code), slog.String("desc", n.Desc))
		s.metrics.WebhookProcessed(models.ProviderPayOS, resultIgnored)
		return nil
	}

	now := s.clock.Now()
	payment, err := s.repo.CompletePendingPayment(ctx, txID, n.Raw, now, month.PeriodEnd(now))
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Warn("payos order code not found")
		s.metrics.WebhookProcessed(models.ProviderPayOS, resultIgnored)
		return nil
	case err != nil:
		log.Error("failed to complete payos payment", sl.Err(err))
		s.metrics.WebhookProcessed(models.ProviderPayOS, resultError)
		return nil
	case payment == nil:
		log.Info("payos payment already completed")
		s.metrics.WebhookProcessed(models.ProviderPayOS, resultIgnored)
		return nil
	}

	log.Info("subscription activated by payos", slog.String("tenant_id", payment.TenantID))
	s.metrics.WebhookProcessed(models.ProviderPayOS, resultProcessed)
	s.publish(ctx, rabbitmq.RoutingSubscriptionActivated, Event{
		TenantID:      payment.TenantID,
		Provider:      models.ProviderPayOS,
		TransactionID: txID,
		Plan:          payment.Plan,
		Amount:        n.Amount,
		Status:        models.SubscriptionActive,
		OccurredAt:    now,
	})
	return nil
}
