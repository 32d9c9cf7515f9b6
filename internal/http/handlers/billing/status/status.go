// Package status отдаёт состояние подписки тенанта.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/middlewarectx"
	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// Service чтение статуса.
type Service interface {
	Status(ctx context.Context, tenantID string) (*models.TenantStatus, error)
}

// Handler обрабатывает GET /billing/status.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Истёкший пробный период возвращается как trial_expired.
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /billing/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	st, err := h.service.Status(r.Context(), id.TenantID)
	if err != nil {
		log.Error("failed to read tenant status", slog.String("tenant_id", id.TenantID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(st))
}
