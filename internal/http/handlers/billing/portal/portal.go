// Package portal выдаёт ссылку на портал управления подпиской Stripe.
package portal

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

// Service создание сессии портала.
type Service interface {
	CreateStripePortal(ctx context.Context, tenantID string) (string, error)
}

// Handler обрабатывает POST /billing/portal.
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
// @Summary Портал подписки Stripe
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Нет клиента Stripe"
// @Failure 503 {object} response.ErrorResponse
// @Router /billing/portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.RenderError(w, r, models.ErrUnauthorized)
		return
	}

	url, err := h.service.CreateStripePortal(r.Context(), id.TenantID)
	if err != nil {
		log.Error("failed to create portal session", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]string{"url": url}))
}
