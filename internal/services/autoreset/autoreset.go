// Package autoreset возвращает вчерашние и более ранние отказы от питания
// в статус eating раз в сутки в настроенное время.
package autoreset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
	"github.com/magabrotheeeer/meal-ordering/internal/rabbitmq"
)

// Причины пропуска запуска.
const (
	ReasonDisabled     = "disabled"
	ReasonNotScheduled = "not scheduled time yet"
	ReasonAlreadyRan   = "already ran today"
)

// Repository настройки и массовый сброс заказов.
type Repository interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
	UpsertSetting(ctx context.Context, key, value string) error
	ResetStaleOrders(ctx context.Context, today, previousLastRun, stamp string) (int64, error)
}

// Notifier публикует доменные события.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Metrics учёт запусков.
type Metrics interface {
	AutoResetRun(outcome string, rows int64)
}

// Service задача автосброса.
type Service struct {
	repo      Repository
	clock     clock.Clock
	tolerance time.Duration
	notifier  Notifier
	metrics   Metrics
	log       *slog.Logger
}

// New создаёт сервис автосброса. notifier может быть nil.
func New(repo Repository, clk clock.Clock, tolerance time.Duration, notifier Notifier, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		clock:     clk,
		tolerance: tolerance,
		notifier:  notifier,
		metrics:   metrics,
		log:       log,
	}
}

// Run выполняет один запуск. Невыполненное предусловие даёт результат со
// Skipped и причиной, а не ошибку.
func (s *Service) Run(ctx context.Context) (*models.AutoResetResult, error) {
	const op = "autoreset.Run"
	log := s.log.With(slog.String("op", op))

	settings, err := s.repo.GetSettings(ctx,
		models.SettingAutoResetEnabled, models.SettingAutoResetTime, models.SettingAutoResetLastRun)
	if err != nil {
		s.metrics.AutoResetRun("error", 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !parseEnabled(settings[models.SettingAutoResetEnabled]) {
		return s.skip(ReasonDisabled), nil
	}

	now := s.clock.Now()
	scheduled := settings[models.SettingAutoResetTime]
	if scheduled == "" {
		scheduled = "00:00"
	}
	within, err := clock.WithinTolerance(scheduled, clock.HHMM(now), s.tolerance)
	if err != nil {
		s.metrics.AutoResetRun("error", 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !within {
		return s.skip(ReasonNotScheduled), nil
	}

	today := clock.DateKey(now)
	lastRun := settings[models.SettingAutoResetLastRun]
	if strings.HasPrefix(lastRun, today) {
		return s.skip(ReasonAlreadyRan), nil
	}

	stamp := clock.FormatInstant(now)
	count, err := s.repo.ResetStaleOrders(ctx, today, lastRun, stamp)
	if errors.Is(err, models.ErrConflict) {
		log.Info("day already claimed by another run", slog.String("today", today))
		return s.skip(ReasonAlreadyRan), nil
	}
	if err != nil {
		s.metrics.AutoResetRun("error", 0)
		log.Error("failed to reset orders", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.AutoResetRun("ran", count)
	log.Info("auto-reset completed", slog.Int64("reset_count", count), slog.String("executed_at", stamp))

	result := &models.AutoResetResult{ResetCount: &count, ExecutedAt: stamp}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, rabbitmq.RoutingAutoReset, result); err != nil {
			log.Warn("failed to publish auto-reset event", sl.Err(err))
		}
	}
	return result, nil
}

func (s *Service) skip(reason string) *models.AutoResetResult {
	s.metrics.AutoResetRun("skipped", 0)
	s.log.Debug("auto-reset skipped", slog.String("reason", reason))
	return &models.AutoResetResult{Skipped: true, Reason: reason}
}

func parseEnabled(v string) bool {
	enabled, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && enabled
}

// Start запускает Run сразу и затем с интервалом interval до отмены ctx.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	s.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("auto-reset scheduler stopped")
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Service) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("auto-reset run failed", sl.Err(err))
	}
}

// Settings текущие настройки автосброса.
func (s *Service) Settings(ctx context.Context) (*models.AutoResetSettings, error) {
	const op = "autoreset.Settings"
	settings, err := s.repo.GetSettings(ctx,
		models.SettingAutoResetEnabled, models.SettingAutoResetTime, models.SettingAutoResetLastRun)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := &models.AutoResetSettings{
		Enabled: parseEnabled(settings[models.SettingAutoResetEnabled]),
		Time:    settings[models.SettingAutoResetTime],
		LastRun: settings[models.SettingAutoResetLastRun],
	}
	if result.Time == "" {
		result.Time = "00:00"
	}
	return result, nil
}

// UpdateSettings сохраняет флаг и время запуска HH:MM.
func (s *Service) UpdateSettings(ctx context.Context, enabled bool, at string) error {
	const op = "autoreset.UpdateSettings"
	if _, err := clock.ParseHHMM(at); err != nil {
		return err
	}
	if err := s.repo.UpsertSetting(ctx, models.SettingAutoResetEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpsertSetting(ctx, models.SettingAutoResetTime, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("auto-reset settings updated", slog.Bool("enabled", enabled), slog.String("time", at))
	return nil
}
