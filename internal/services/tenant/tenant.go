// Package tenant регистрирует организации и отдаёт состояние их подписки.
package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

const (
	minTrialDays = 7
	maxTrialDays = 14
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "app": {}, "billing": {}, "docs": {}, "health": {},
	"metrics": {}, "static": {}, "support": {}, "www": {},
}

// Repository хранилище тенантов.
type Repository interface {
	CreateTenant(ctx context.Context, name, slug string, trialEndsAt time.Time) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// Service регистрация тенантов.
type Service struct {
	repo      Repository
	clock     clock.Clock
	trialDays int
	validate  *validator.Validate
	log       *slog.Logger
}

// New создаёт сервис. trialDays прижимается к диапазону 7..14.
func New(repo Repository, clk clock.Clock, trialDays int, log *slog.Logger) *Service {
	if trialDays < minTrialDays {
		trialDays = minTrialDays
	}
	if trialDays > maxTrialDays {
		trialDays = maxTrialDays
	}
	return &Service{
		repo:      repo,
		clock:     clk,
		trialDays: trialDays,
		validate:  validator.New(),
		log:       log,
	}
}

// ValidateSlug проверяет формат slug и список зарезервированных имён.
func ValidateSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("%w: slug must be 3-63 lowercase letters, digits or dashes", models.ErrValidation)
	}
	if _, ok := reservedSlugs[slug]; ok {
		return fmt.Errorf("%w: slug %q is reserved", models.ErrValidation, slug)
	}
	return nil
}

// Signup создаёт тенанта в пробном периоде. Занятый slug даёт models.ErrConflict.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.Tenant, error) {
	const op = "tenant.Signup"

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if err := ValidateSlug(req.Slug); err != nil {
		return nil, err
	}

	trialEnds := s.clock.Now().AddDate(0, 0, s.trialDays)
	t, err := s.repo.CreateTenant(ctx, req.Name, req.Slug, trialEnds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("tenant created",
		slog.String("tenant_id", t.ID),
		slog.String("slug", t.Slug),
		slog.Time("trial_ends_at", trialEnds))
	return t, nil
}

// Status состояние подписки с учётом истечения пробного периода на текущий момент.
func (s *Service) Status(ctx context.Context, tenantID string) (*models.TenantStatus, error) {
	const op = "tenant.Status"
	t, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.TenantStatus{
		TenantID:          t.ID,
		Name:              t.Name,
		Plan:              t.Plan,
		Status:            t.EffectiveStatus(s.clock.Now()),
		TrialEndsAt:       t.TrialEndsAt,
		CurrentPeriodEnd:  t.CurrentPeriodEnd,
		CancelAtPeriodEnd: t.CancelAtPeriodEnd,
	}, nil
}

// CheckAccess возвращает models.ErrForbidden, если подписка отменена
// или пробный период истёк.
func (s *Service) CheckAccess(ctx context.Context, tenantID string) error {
	status, err := s.Status(ctx, tenantID)
	if err != nil {
		return err
	}
	switch status.Status {
	case models.SubscriptionCanceled, models.SubscriptionTrialExpired:
		return fmt.Errorf("tenant.CheckAccess: subscription %s: %w", status.Status, models.ErrForbidden)
	default:
		return nil
	}
}
