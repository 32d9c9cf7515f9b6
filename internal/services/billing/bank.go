package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/month"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/payref"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
)

var errAmbiguousTenant = errors.New("ambiguous tenant fragment")

// VerifyBankSignature проверяет подпись вебхука банка, если верификатор задан.
func (s *Service) VerifyBankSignature(body []byte, signature string) error {
	if s.providers.Bank == nil {
		return nil
	}
	if err := s.providers.Bank.Verify(body, signature); err != nil {
		s.metrics.WebhookProcessed(models.ProviderBank, resultRejected)
		return err
	}
	return nil
}

// ProcessBankTransactions сверяет пачку банковских операций. Ошибка одной
// операции не прерывает обработку остальных.
func (s *Service) ProcessBankTransactions(ctx context.Context, txs []models.BankTransaction) *models.BankWebhookResult {
	result := &models.BankWebhookResult{}
	for _, tx := range txs {
		outcome := s.processBankTransaction(ctx, tx)
		switch outcome {
		case resultProcessed:
			result.Processed++
		case resultIgnored:
			result.Ignored++
		default:
			result.Failed++
		}
		s.metrics.WebhookProcessed(models.ProviderBank, outcome)
	}
	return result
}

func (s *Service) processBankTransaction(ctx context.Context, tx models.BankTransaction) string {
	const op = "billing.processBankTransaction"
	txID := tx.ProviderID()
	log := s.log.With(slog.String("op", op), slog.String("transaction_id", txID))

	reference, ok := payref.Extract(tx.Description)
	if !ok {
		log.Debug("no payment reference in description")
		return resultIgnored
	}
	parsed, ok := payref.Parse(reference)
	if !ok {
		log.Info("malformed payment reference", slog.String("reference", reference))
		return resultIgnored
	}
	plan, ok := models.ParsePlan(parsed.Plan)
	if !ok {
		log.Info("unknown plan in payment reference", slog.String("reference", reference))
		return resultIgnored
	}
	if txID == "" {
		log.Warn("bank transaction without id", slog.String("reference", reference))
		return resultIgnored
	}

	tenant, err := s.resolveTenant(ctx, reference, parsed.TenantFragment)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, errAmbiguousTenant) {
		log.Warn("tenant not resolved for payment", slog.String("reference", reference), sl.Err(err))
		return resultIgnored
	}
	if err != nil {
		log.Error("failed to resolve tenant", sl.Err(err))
		return resultError
	}

	_, err = s.repo.GetPaymentByTransactionID(ctx, txID)
	if err == nil {
		log.Info("bank transaction already recorded")
		return resultIgnored
	}
	if !errors.Is(err, models.ErrNotFound) {
		log.Error("failed to check transaction", sl.Err(err))
		return resultError
	}

	expected, _ := s.opts.Prices.Price(plan)
	now := s.clock.Now()
	payment := &models.PaymentTransaction{
		TenantID:         tenant.ID,
		TransactionID:    txID,
		Provider:         models.ProviderBank,
		Plan:             plan,
		Amount:           tx.Amount,
		Currency:         s.opts.Currency,
		PaymentReference: reference,
		RawPayload:       encodeBankTransaction(tx),
		ProcessedAt:      &now,
	}

	if diff := tx.Amount - expected; diff > s.opts.AmountTolerance || -diff > s.opts.AmountTolerance {
		payment.Note = fmt.Sprintf("amount mismatch: expected %d, got %d", expected, tx.Amount)
		recorded, err := s.repo.RecordFailedPayment(ctx, payment)
		if err != nil {
			log.Error("failed to record mismatched payment", sl.Err(err))
			return resultError
		}
		if !recorded {
			return resultIgnored
		}
		log.Warn("bank payment amount mismatch",
			slog.String("tenant_id", tenant.ID),
			slog.Int64("expected", expected),
			slog.Int64("amount", tx.Amount))
		s.publish(ctx, rabbitmq.RoutingPaymentFailed, Event{
			TenantID:      tenant.ID,
			Provider:      models.ProviderBank,
			TransactionID: txID,
			Plan:          plan,
			Amount:        tx.Amount,
			Note:          payment.Note,
			OccurredAt:    now,
		})
		return resultFailed
	}

	periodEnd := month.PeriodEnd(now)
	applied, err := s.repo.CompleteBankPayment(ctx, payment, models.Activation{
		TenantID:         tenant.ID,
		Plan:             plan,
		PaidAt:           now,
		CurrentPeriodEnd: periodEnd,
	})
	if err != nil {
		log.Error("failed to complete bank payment", sl.Err(err))
		return resultError
	}
	if !applied {
		log.Info("bank transaction recorded concurrently")
		return resultIgnored
	}

	log.Info("subscription activated by bank transfer",
		slog.String("tenant_id", tenant.ID),
		slog.String("plan", string(plan)),
		slog.Time("current_period_end", periodEnd))
	s.publish(ctx, rabbitmq.RoutingSubscriptionActivated, Event{
		TenantID:      tenant.ID,
		Provider:      models.ProviderBank,
		TransactionID: txID,
		Plan:          plan,
		Amount:        tx.Amount,
		Status:        models.SubscriptionActive,
		OccurredAt:    now,
	})
	return resultProcessed
}

// resolveTenant ищет тенанта сначала по полной ссылке, выданной при оформлении,
// затем по фрагменту id. Несколько совпадений по фрагменту дают errAmbiguousTenant.
func (s *Service) resolveTenant(ctx context.Context, reference, fragment string) (*models.Tenant, error) {
	tenant, err := s.repo.FindTenantByPaymentReference(ctx, reference)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	tenants, err := s.repo.FindTenantsByIDFragment(ctx, fragment)
	if err != nil {
		return nil, err
	}
	switch len(tenants) {
	case 0:
		return nil, models.ErrNotFound
	case 1:
		return tenants[0], nil
	default:
		return nil, errAmbiguousTenant
	}
}

func encodeBankTransaction(tx models.BankTransaction) []byte {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil
	}
	return raw
}
