// Package stripe принимает события подписок Stripe.
package stripe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/meal-ordering/internal/http/response"
	"github.com/magabrotheeeer/meal-ordering/internal/lib/sl"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// SignatureHeader заголовок подписи Stripe.
const SignatureHeader = "Stripe-Signature"

// Stripe ограничивает тело события 512 КБ.
const maxBodyBytes = 65536 * 8

// Service обработка события Stripe.
type Service interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

// Handler обрабатывает POST /webhooks/stripe.
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
// @Summary Вебхук Stripe
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.ErrorResponse "Неверная подпись"
// @Failure 503 {object} response.ErrorResponse "Stripe не настроен"
// @Router /webhooks/stripe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhooks.stripe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeValidation, "invalid request body"))
		return
	}

	err = h.service.HandleStripeWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	switch {
	case err == nil:
		render.JSON(w, r, map[string]bool{"received": true})
	case errors.Is(err, models.ErrSignatureInvalid):
		log.Warn("stripe signature rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.CodeSignatureInvalid, models.ErrSignatureInvalid.Error()))
	default:
		log.Error("stripe webhook failed", sl.Err(err))
		response.RenderError(w, r, err)
	}
}
