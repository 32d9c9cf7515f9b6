// Package order управляет решением сотрудника о питании на день:
// создание при первом обращении, переключение до дедлайна и блокировка дня.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Repository операции хранилища над заказами.
type Repository interface {
	GetOrder(ctx context.Context, userID, date string) (*models.Order, error)
	CreateOrder(ctx context.Context, userID, date string) (*models.Order, error)
	ToggleOrder(ctx context.Context, userID, date string) (*models.Order, error)
	ListOrders(ctx context.Context, userID, from, to string, limit, offset int) ([]*models.Order, int, error)
	LockOrders(ctx context.Context, tenantID, date string) (int64, error)
}

// Metrics счётчик переключений.
type Metrics interface {
	OrderToggled(result string)
}

// Service реализует автомат состояний заказа.
type Service struct {
	repo       Repository
	clock      clock.Clock
	cutoffHour int
	metrics    Metrics
	log        *slog.Logger
}

// New создаёт сервис заказов.
func New(repo Repository, clk clock.Clock, cutoffHour int, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		clock:      clk,
		cutoffHour: cutoffHour,
		metrics:    metrics,
		log:        log,
	}
}

// GetOrCreate возвращает заказ на дату, создавая его со статусом eating.
// Проигравший гонку за вставку перечитывает строку победителя.
func (s *Service) GetOrCreate(ctx context.Context, userID, date string) (*models.Order, error) {
	const op = "order.GetOrCreate"
	if _, err := clock.ParseDate(date); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrder(ctx, userID, date)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o, err = s.repo.CreateOrder(ctx, userID, date)
	if err == nil {
		s.log.Debug("order created", slog.String("user_id", userID), slog.String("date", date))
		return o, nil
	}
	if !errors.Is(err, models.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o, err = s.repo.GetOrder(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// GetOrCreateToday GetOrCreate для сегодняшней бизнес-даты.
func (s *Service) GetOrCreateToday(ctx context.Context, userID string) (*models.Order, error) {
	return s.GetOrCreate(ctx, userID, clock.TodayKey(s.clock))
}

// Toggle переключает eating и not_eating. После дедлайна и для прошедших
// дат возвращает models.ErrDeadlinePassed, для заблокированного заказа
// models.ErrOrderLocked.
func (s *Service) Toggle(ctx context.Context, userID, date string) (*models.Order, error) {
	const op = "order.Toggle"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID), slog.String("date", date))

	if _, err := clock.ParseDate(date); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if date < clock.DateKey(now) || !clock.IsBeforeDeadline(now, s.cutoffHour) {
		s.metrics.OrderToggled("deadline_passed")
		return nil, models.ErrDeadlinePassed
	}

	o, err := s.repo.ToggleOrder(ctx, userID, date)
	switch {
	case err == nil:
		s.metrics.OrderToggled("ok")
		log.Info("order toggled", slog.String("status", string(o.Status)))
		return o, nil
	case errors.Is(err, models.ErrOrderLocked):
		s.metrics.OrderToggled("locked")
		return nil, models.ErrOrderLocked
	case errors.Is(err, models.ErrNotFound):
		s.metrics.OrderToggled("not_found")
		return nil, models.ErrNotFound
	default:
		s.metrics.OrderToggled("error")
		log.Error("failed to toggle order", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// ToggleToday Toggle для сегодняшней бизнес-даты.
func (s *Service) ToggleToday(ctx context.Context, userID string) (*models.Order, error) {
	return s.Toggle(ctx, userID, clock.TodayKey(s.clock))
}

// ListForRange возвращает страницу заказов за период, новые сверху.
func (s *Service) ListForRange(ctx context.Context, userID string, q models.OrderHistoryQuery) (*models.OrderPage, error) {
	const op = "order.ListForRange"

	from, err := clock.ParseDate(q.From)
	if err != nil {
		return nil, err
	}
	to, err := clock.ParseDate(q.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from is after to", models.ErrValidation)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	orders, total, err := s.repo.ListOrders(ctx, userID, q.From, q.To, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.OrderPage{
		Orders:   orders,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// LockDay блокирует все заказы тенанта на дату для кухни.
func (s *Service) LockDay(ctx context.Context, tenantID, date string) (int64, error) {
	const op = "order.LockDay"
	if _, err := clock.ParseDate(date); err != nil {
		return 0, err
	}
	n, err := s.repo.LockOrders(ctx, tenantID, date)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("orders locked", slog.String("tenant_id", tenantID), slog.String("date", date), slog.Int64("count", n))
	return n, nil
}
