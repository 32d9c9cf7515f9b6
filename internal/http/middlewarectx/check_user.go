package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// AccessChecker проверяет, открыт ли тенанту доступ по статусу подписки.
type AccessChecker interface {
	CheckAccess(ctx context.Context, tenantID string) error
}

// SubscriptionStatus закрывает маршруты тенанта, если подписка отменена
// или пробный период истёк. Пользователь без тенанта получает 403.
func SubscriptionStatus(log *slog.Logger, checker AccessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthorized, "user identification missing"))
				return
			}
			if id.TenantID == "" {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(response.CodeForbidden, "user is not bound to a tenant"))
				return
			}

			err := checker.CheckAccess(r.Context(), id.TenantID)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrNotFound):
				log.Info("tenant access denied", slog.String("tenant_id", id.TenantID), sl.Err(err))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(response.CodeForbidden, "subscription inactive, access denied"))
			default:
				log.Error("failed to check subscription status", sl.Err(err))
				response.RenderError(w, r, err)
			}
		})
	}
}
