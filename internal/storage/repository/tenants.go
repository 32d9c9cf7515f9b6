package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const tenantColumns = `id::text, name, slug, plan, subscription_status, trial_ends_at, current_period_end,
	cancel_at_period_end, last_payment_date, COALESCE(payment_reference, ''),
	COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), created_at`

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var t models.Tenant
	var plan, status string
	var trialEnds, periodEnd, lastPayment sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &plan, &status, &trialEnds, &periodEnd,
		&t.CancelAtPeriodEnd, &lastPayment, &t.PaymentReference,
		&t.StripeCustomerID, &t.StripeSubscriptionID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Plan = models.Plan(plan)
	t.SubscriptionStatus = models.SubscriptionStatus(status)
	t.TrialEndsAt = timePtr(trialEnds)
	t.CurrentPeriodEnd = timePtr(periodEnd)
	t.LastPaymentDate = timePtr(lastPayment)
	return &t, nil
}

// CreateTenant создаёт тенанта в пробном периоде. Занятый slug даёт models.ErrConflict.
func (s *Storage) CreateTenant(ctx context.Context, name, slug string, trialEndsAt time.Time) (*models.Tenant, error) {
	const op = "storage.CreateTenant"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tenants (id, name, slug, plan, subscription_status, trial_ends_at)
			  VALUES ($1, $2, $3, 'trial', 'trialing', $4)
			  RETURNING ` + tenantColumns
	t, err := scanTenant(s.DB.QueryRowContext(ctx, query, uuid.NewString(), name, slug, trialEndsAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return t, nil
}

// GetTenant возвращает тенанта по id.
func (s *Storage) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	const op = "storage.GetTenant"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	t, err := scanTenant(s.DB.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return t, nil
}

// FindTenantByPaymentReference ищет тенанта по последней выданной ссылке оплаты.
func (s *Storage) FindTenantByPaymentReference(ctx context.Context, reference string) (*models.Tenant, error) {
	const op = "storage.FindTenantByPaymentReference"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	t, err := scanTenant(s.DB.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE payment_reference = $1 LIMIT 1`, reference))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return t, nil
}

// FindTenantsByIDFragment возвращает не более двух тенантов, чей id без дефисов
// содержит фрагмент. Двух результатов достаточно, чтобы распознать неоднозначность.
func (s *Storage) FindTenantsByIDFragment(ctx context.Context, fragment string) ([]*models.Tenant, error) {
	const op = "storage.FindTenantsByIDFragment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	fragment = strings.ReplaceAll(fragment, "-", "")
	if fragment == "" {
		return nil, nil
	}
	query := `SELECT ` + tenantColumns + ` FROM tenants
			  WHERE replace(id::text, '-', '') ILIKE '%' || $1 || '%'
			  LIMIT 2`
	rows, err := s.DB.QueryContext(ctx, query, fragment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetPaymentReference сохраняет последнюю выданную ссылку оплаты.
func (s *Storage) SetPaymentReference(ctx context.Context, tenantID, reference string) error {
	const op = "storage.SetPaymentReference"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET payment_reference = $2, updated_at = now() WHERE id = $1`, tenantID, reference)
}

// SetStripeCustomerID привязывает клиента Stripe к тенанту.
func (s *Storage) SetStripeCustomerID(ctx context.Context, tenantID, customerID string) error {
	const op = "storage.SetStripeCustomerID"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET stripe_customer_id = $2, updated_at = now() WHERE id = $1`, tenantID, customerID)
}

// SetStripeSubscription после оформления подписки активирует тенанта.
func (s *Storage) SetStripeSubscription(ctx context.Context, tenantID, subscriptionID string) error {
	const op = "storage.SetStripeSubscription"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET stripe_subscription_id = $2, subscription_status = 'active', updated_at = now()
		 WHERE id = $1`, tenantID, subscriptionID)
}

// UpdateStripeSubscriptionState выставляет абсолютные значения полей подписки.
// Нулевой periodEnd не меняет current_period_end.
func (s *Storage) UpdateStripeSubscriptionState(ctx context.Context, subscriptionID string,
	status models.SubscriptionStatus, periodEnd *time.Time, cancelAtPeriodEnd bool,
) error {
	const op = "storage.UpdateStripeSubscriptionState"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET subscription_status = $2,
		        current_period_end = COALESCE($3, current_period_end),
		        cancel_at_period_end = $4,
		        updated_at = now()
		 WHERE stripe_subscription_id = $1`,
		subscriptionID, string(status), nullTime(periodEnd), cancelAtPeriodEnd)
}

// CancelStripeSubscription отменяет подписку и отвязывает её id.
func (s *Storage) CancelStripeSubscription(ctx context.Context, subscriptionID string) error {
	const op = "storage.CancelStripeSubscription"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET subscription_status = 'canceled', stripe_subscription_id = NULL, updated_at = now()
		 WHERE stripe_subscription_id = $1`, subscriptionID)
}

// SetStatusByStripeSubscription меняет статус тенанта по id подписки Stripe.
func (s *Storage) SetStatusByStripeSubscription(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error {
	const op = "storage.SetStatusByStripeSubscription"
	return s.execTenant(ctx, op,
		`UPDATE tenants SET subscription_status = $2, updated_at = now()
		 WHERE stripe_subscription_id = $1`, subscriptionID, string(status))
}

// execTenant выполняет обновление одного тенанта, отсутствие строки даёт models.ErrNotFound.
func (s *Storage) execTenant(ctx context.Context, op, query string, args ...any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// activateTenant переводит тенанта в active в рамках транзакции оплаты.
func activateTenant(ctx context.Context, tx *sql.Tx, a models.Activation) error {
	res, err := tx.ExecContext(ctx, `UPDATE tenants SET
			subscription_status = 'active',
			plan = COALESCE(NULLIF($2, ''), plan),
			last_payment_date = $3,
			current_period_end = $4,
			cancel_at_period_end = false,
			updated_at = now()
		WHERE id = $1`,
		a.TenantID, string(a.Plan), a.PaidAt, a.CurrentPeriodEnd)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
