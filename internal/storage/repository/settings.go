package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// GetSettings возвращает значения по ключам. Отсутствующих ключей нет в карте.
func (s *Storage) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	const op = "storage.GetSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT key, value FROM system_settings WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertSetting записывает значение, одна строка на ключ.
func (s *Storage) UpsertSetting(ctx context.Context, key, value string) error {
	const op = "storage.UpsertSetting"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO system_settings (key, value, updated_at)
			  VALUES ($1, $2, now())
			  ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetStaleOrders в одной транзакции занимает день, заменяя auto_reset_last_run
// с previousLastRun на stamp, и возвращает в eating все отказы до today.
// Если значение уже изменил другой запуск, возвращает models.ErrConflict
// и ничего не меняет.
func (s *Storage) ResetStaleOrders(ctx context.Context, today, previousLastRun, stamp string) (int64, error) {
	const op = "storage.ResetStaleOrders"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		claim, err := tx.ExecContext(ctx, `INSERT INTO system_settings (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
			WHERE system_settings.value = $3`,
			models.SettingAutoResetLastRun, stamp, previousLastRun)
		if err != nil {
			return err
		}
		claimed, err := claim.RowsAffected()
		if err != nil {
			return err
		}
		if claimed == 0 {
			return models.ErrConflict
		}

		res, err := tx.ExecContext(ctx, `UPDATE orders SET status = 'eating', updated_at = now()
			WHERE status = 'not_eating' AND date < $1::date`, today)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}
