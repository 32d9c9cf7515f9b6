package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const orderColumns = `id, user_id::text, to_char(date, 'YYYY-MM-DD'), status, locked, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &o.Date, &status, &o.Locked, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// GetOrder возвращает заказ сотрудника на дату или models.ErrNotFound.
func (s *Storage) GetOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	const op = "storage.GetOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND date = $2::date`
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return o, nil
}

// CreateOrder создаёт заказ со статусом eating. Повторная вставка на ту же
// дату возвращает models.ErrConflict.
func (s *Storage) CreateOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO orders (user_id, date, status, locked)
			  VALUES ($1, $2::date, 'eating', false)
			  RETURNING ` + orderColumns
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return o, nil
}

// ToggleOrder переключает статус одним запросом, только если заказ не заблокирован.
func (s *Storage) ToggleOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	const op = "storage.ToggleOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders
			  SET status = CASE WHEN status IN ('not_eating', 'cancelled') THEN 'eating' ELSE 'not_eating' END,
			      updated_at = now()
			  WHERE user_id = $1 AND date = $2::date AND locked = false
			  RETURNING ` + orderColumns
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, userID, date))
	if err == nil {
		return o, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var locked bool
	err = s.DB.QueryRowContext(ctx, `SELECT locked FROM orders WHERE user_id = $1 AND date = $2::date`, userID, date).Scan(&locked)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrOrderLocked)
}

// ListOrders возвращает заказы сотрудника за период, новые сверху, и общее число.
func (s *Storage) ListOrders(ctx context.Context, userID, from, to string, limit, offset int) ([]*models.Order, int, error) {
	const op = "storage.ListOrders"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date`, userID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders
			  WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
			  ORDER BY date DESC
			  LIMIT $4 OFFSET $5`
	rows, err := s.DB.QueryContext(ctx, query, userID, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListOrdersForDate возвращает заказы всех сотрудников тенанта на дату.
func (s *Storage) ListOrdersForDate(ctx context.Context, tenantID, date string) ([]*models.Order, error) {
	const op = "storage.ListOrdersForDate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.id, o.user_id::text, to_char(o.date, 'YYYY-MM-DD'), o.status, o.locked, o.created_at, o.updated_at
			  FROM orders o
			  JOIN users u ON u.id = o.user_id
			  WHERE u.tenant_id = $1 AND o.date = $2::date`
	rows, err := s.DB.QueryContext(ctx, query, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// LockOrders блокирует заказы тенанта на дату и возвращает число заблокированных.
func (s *Storage) LockOrders(ctx context.Context, tenantID, date string) (int64, error) {
	const op = "storage.LockOrders"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders o SET locked = true, updated_at = now()
			  FROM users u
			  WHERE u.id = o.user_id AND u.tenant_id = $1 AND o.date = $2::date AND o.locked = false`
	res, err := s.DB.ExecContext(ctx, query, tenantID, date)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
