// Package forecast считает прогноз питания на дату по отделам и сменам.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// UnassignedShift имя группы сотрудников без смены.
const UnassignedShift = "Unassigned"

// Repository данные для прогноза.
type Repository interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
	UpsertSetting(ctx context.Context, key, value string) error
	ListActiveUsers(ctx context.Context, tenantID string) ([]*models.User, error)
	ListOrdersForDate(ctx context.Context, tenantID, date string) ([]*models.Order, error)
	ListShifts(ctx context.Context, tenantID string) ([]*models.Shift, error)
}

// Cache кэш готовых прогнозов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service прогноз питания.
type Service struct {
	repo     Repository
	cache    Cache
	ttl      time.Duration
	validate *validator.Validate
	log      *slog.Logger
}

// New создаёт сервис. cache может быть nil.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		validate: validator.New(),
		log:      log,
	}
}

// Breakdown прогноз тенанта на дату. Вне дней готовки возвращает пустой
// прогноз с CookingDay=false, не читая заказы.
func (s *Service) Breakdown(ctx context.Context, tenantID, date string) (*models.Breakdown, error) {
	const op = "forecast.Breakdown"
	log := s.log.With(slog.String("op", op), slog.String("tenant_id", tenantID), slog.String("date", date))

	weekday, err := clock.Weekday(date)
	if err != nil {
		return nil, err
	}
	days, err := s.CookingDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if days != nil && !days.Contains(weekday) {
		log.Debug("no cooking scheduled")
		return &models.Breakdown{
			Date:        date,
			Departments: []models.DepartmentBreakdown{},
			Shifts:      []models.ShiftBreakdown{},
		}, nil
	}

	key := cacheKey(tenantID, date)
	if s.cache != nil {
		var cached models.Breakdown
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("forecast cache read failed", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	users, err := s.repo.ListActiveUsers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	orders, err := s.repo.ListOrdersForDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	shifts, err := s.repo.ListShifts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := Aggregate(date, users, orders, shifts)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			log.Warn("forecast cache write failed", sl.Err(err))
		}
	}
	return result, nil
}

func cacheKey(tenantID, date string) string {
	return "forecast:" + tenantID + ":" + date
}

// CookingDays читает диапазон дней готовки. Если настройка не задана или
// повреждена, возвращает nil, и готовка считается ежедневной.
func (s *Service) CookingDays(ctx context.Context) (*models.CookingDays, error) {
	settings, err := s.repo.GetSettings(ctx, models.SettingCookingDays)
	if err != nil {
		return nil, err
	}
	raw, ok := settings[models.SettingCookingDays]
	if !ok || raw == "" {
		return nil, nil
	}
	var days models.CookingDays
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		s.log.Warn("invalid cooking_days setting", slog.String("value", raw), sl.Err(err))
		return nil, nil
	}
	if err := s.validate.Struct(days); err != nil {
		s.log.Warn("cooking_days out of range", slog.String("value", raw))
		return nil, nil
	}
	return &days, nil
}

// UpdateCookingDays сохраняет диапазон дней готовки.
func (s *Service) UpdateCookingDays(ctx context.Context, days models.CookingDays) error {
	const op = "forecast.UpdateCookingDays"
	if err := s.validate.Struct(days); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpsertSetting(ctx, models.SettingCookingDays, string(raw)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("cooking days updated", slog.Int("start_day", days.StartDay), slog.Int("end_day", days.EndDay))
	return nil
}

// Aggregate считает прогноз. Сотрудник без заказа на дату считается питающимся.
func Aggregate(date string, users []*models.User, orders []*models.Order, shifts []*models.Shift) *models.Breakdown {
	statuses := make(map[string]models.OrderStatus, len(orders))
	for _, o := range orders {
		statuses[o.UserID] = o.Status
	}

	type deptAcc struct{ total, registered int }
	depts := make(map[string]*deptAcc)
	shiftCounts := make(map[int64]int)
	unassigned := 0
	known := make(map[int64]bool, len(shifts))
	for _, sh := range shifts {
		known[sh.ID] = true
	}

	result := &models.Breakdown{Date: date, CookingDay: true, Total: len(users)}
	for _, u := range users {
		acc, ok := depts[u.Department]
		if !ok {
			acc = &deptAcc{}
			depts[u.Department] = acc
		}
		acc.total++

		status, ok := statuses[u.ID]
		if !ok {
			status = models.StatusEating
		}
		if status.OptedOut() {
			continue
		}
		acc.registered++
		result.Registered++
		if u.ShiftID != nil && known[*u.ShiftID] {
			shiftCounts[*u.ShiftID]++
		} else {
			unassigned++
		}
	}

	result.Departments = make([]models.DepartmentBreakdown, 0, len(depts))
	for name, acc := range depts {
		result.Departments = append(result.Departments, models.DepartmentBreakdown{
			Department: name,
			Total:      acc.total,
			Registered: acc.registered,
			Percentage: percentage(acc.registered, acc.total),
		})
	}
	sort.Slice(result.Departments, func(i, j int) bool {
		a, b := result.Departments[i], result.Departments[j]
		if a.Registered != b.Registered {
			return a.Registered > b.Registered
		}
		return a.Department < b.Department
	})

	result.Shifts = make([]models.ShiftBreakdown, 0, len(shifts)+1)
	for _, sh := range shifts {
		id := sh.ID
		result.Shifts = append(result.Shifts, models.ShiftBreakdown{
			ShiftID:   &id,
			Name:      sh.Name,
			StartTime: sh.StartTime,
			EndTime:   sh.EndTime,
			Count:     shiftCounts[sh.ID],
		})
	}
	if unassigned > 0 {
		result.Shifts = append(result.Shifts, models.ShiftBreakdown{Name: UnassignedShift, Count: unassigned})
	}
	sort.SliceStable(result.Shifts, func(i, j int) bool {
		return result.Shifts[i].Count > result.Shifts[j].Count
	})
	return result
}

// percentage доля в процентах с одним знаком после запятой.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
