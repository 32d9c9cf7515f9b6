package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const paymentColumns = `id, tenant_id::text, transaction_id, provider, plan, amount, currency,
	payment_reference, status, note, COALESCE(raw_payload::text, ''), processed_at, created_at`

func scanPayment(row rowScanner) (*models.PaymentTransaction, error) {
	var p models.PaymentTransaction
	var plan, status, raw string
	var processed sql.NullTime
	err := row.Scan(&p.ID, &p.TenantID, &p.TransactionID, &p.Provider, &plan, &p.Amount, &p.Currency,
		&p.PaymentReference, &status, &p.Note, &raw, &processed, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Plan = models.Plan(plan)
	p.Status = models.PaymentStatus(status)
	if raw != "" {
		p.RawPayload = []byte(raw)
	}
	p.ProcessedAt = timePtr(processed)
	return &p, nil
}

// GetPaymentByTransactionID ищет транзакцию по идентификатору провайдера.
func (s *Storage) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	const op = "storage.GetPaymentByTransactionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payment_transactions WHERE transaction_id = $1`, transactionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// CreatePendingPayment сохраняет ожидающую оплату, созданную при выдаче ссылки.
func (s *Storage) CreatePendingPayment(ctx context.Context, p *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	const op = "storage.CreatePendingPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payment_transactions
			  (tenant_id, transaction_id, provider, plan, amount, currency, payment_reference, status, note)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.DB.QueryRowContext(ctx, query,
		p.TenantID, p.TransactionID, p.Provider, string(p.Plan), p.Amount, p.Currency, p.PaymentReference, p.Note))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// MarkPaymentFailed помечает ожидающую транзакцию как неуспешную.
func (s *Storage) MarkPaymentFailed(ctx context.Context, transactionID, note string) error {
	const op = "storage.MarkPaymentFailed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE payment_transactions SET status = 'failed', note = $2
		WHERE transaction_id = $1 AND status = 'pending'`, transactionID, note)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
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

// RecordFailedPayment записывает неуспешную транзакцию для аудита, тенант не меняется.
// Возвращает false, если транзакция с таким id уже есть.
func (s *Storage) RecordFailedPayment(ctx context.Context, p *models.PaymentTransaction) (bool, error) {
	const op = "storage.RecordFailedPayment"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `INSERT INTO payment_transactions
		(tenant_id, transaction_id, provider, plan, amount, currency, payment_reference, status, note, raw_payload, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'failed', $8, $9::jsonb, $10)
		ON CONFLICT (transaction_id) DO NOTHING`,
		p.TenantID, p.TransactionID, p.Provider, string(p.Plan), p.Amount, p.Currency,
		p.PaymentReference, p.Note, nullJSON(p.RawPayload), nullTime(p.ProcessedAt))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// CompleteBankPayment в одной транзакции записывает завершённый платёж и
// активирует тенанта. Если платёж с таким id уже записан, ничего не меняет
// и возвращает false.
func (s *Storage) CompleteBankPayment(ctx context.Context, p *models.PaymentTransaction, a models.Activation) (bool, error) {
	const op = "storage.CompleteBankPayment"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	applied := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO payment_transactions
			(tenant_id, transaction_id, provider, plan, amount, currency, payment_reference, status, note, raw_payload, processed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'completed', $8, $9::jsonb, $10)
			ON CONFLICT (transaction_id) DO NOTHING
			RETURNING id`,
			p.TenantID, p.TransactionID, p.Provider, string(p.Plan), p.Amount, p.Currency,
			p.PaymentReference, p.Note, nullJSON(p.RawPayload), a.PaidAt).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := activateTenant(ctx, tx, a); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return applied, nil
}

// CompletePendingPayment завершает ожидающую транзакцию и активирует её тенанта
// в одной транзакции с тарифом, записанным в транзакции при выдаче ссылки.
// periodEnd вычисляется от paidAt вызывающей стороной.
// Уже завершённая транзакция даёт (nil, nil), отсутствующая models.ErrNotFound.
func (s *Storage) CompletePendingPayment(ctx context.Context, transactionID string, raw []byte,
	paidAt, periodEnd time.Time,
) (*models.PaymentTransaction, error) {
	const op = "storage.CompletePendingPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var completed *models.PaymentTransaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPayment(tx.QueryRowContext(ctx, `UPDATE payment_transactions
			SET status = 'completed', raw_payload = $2::jsonb, processed_at = $3
			WHERE transaction_id = $1 AND status <> 'completed'
			RETURNING `+paymentColumns, transactionID, nullJSON(raw), paidAt))
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (
				SELECT 1 FROM payment_transactions WHERE transaction_id = $1)`, transactionID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return models.ErrNotFound
			}
			return nil
		}
		if err != nil {
			return err
		}
		if err := activateTenant(ctx, tx, models.Activation{
			TenantID:         p.TenantID,
			Plan:             p.Plan,
			PaidAt:           paidAt,
			CurrentPeriodEnd: periodEnd,
		}); err != nil {
			return err
		}
		completed = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return completed, nil
}
