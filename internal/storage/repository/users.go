package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// ListActiveUsers возвращает активных сотрудников тенанта.
func (s *Storage) ListActiveUsers(ctx context.Context, tenantID string) ([]*models.User, error) {
	const op = "storage.ListActiveUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id::text, tenant_id::text, email, full_name, department, shift_id, role, active
		FROM users WHERE tenant_id = $1 AND active = true
		ORDER BY full_name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		var shiftID sql.NullInt64
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.Department, &shiftID, &u.Role, &u.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if shiftID.Valid {
			v := shiftID.Int64
			u.ShiftID = &v
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListShifts возвращает смены тенанта.
func (s *Storage) ListShifts(ctx context.Context, tenantID string) ([]*models.Shift, error) {
	const op = "storage.ListShifts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, tenant_id::text, name, start_time, end_time
		FROM shifts WHERE tenant_id = $1 ORDER BY start_time`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Shift
	for rows.Next() {
		var sh models.Shift
		if err := rows.Scan(&sh.ID, &sh.TenantID, &sh.Name, &sh.StartTime, &sh.EndTime); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
